// Package toolchain turns generated assembly into an executable with the
// system assembler and linker.
package toolchain

import (
	"context"
	"os"
	"os/exec"
	"strings"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/xplshn/pnc/pkg/config"
)

type Options struct {
	// Output is the executable path. Intermediates are named after it.
	Output string
	// Keep leaves the assembly and object files next to the output.
	Keep bool
	// LinkerArgs are appended to the final link command.
	LinkerArgs []string
}

// Result lists what Build produced.
type Result struct {
	Executable    string
	Intermediates []string
	Kept          bool
}

// Build assembles and links asm. With the nasm backend it runs
// `nasm -f elf64` and `ld -s`; with qbe the output is host assembly linked by `cc`.
func Build(ctx context.Context, cfg *config.Config, asm string, opts Options) (res Result, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "toolchain", "output", opts.Output, "backend", cfg.BackendName)
	defer tr.Finish("err", &err)

	if opts.Output == "" {
		return res, errors.New("no output file")
	}
	res.Executable = opts.Output

	var steps [][]string

	switch cfg.BackendName {
	case config.BackendNASM, "":
		src, obj := opts.Output+".asm", opts.Output+".o"
		res.Intermediates = []string{src, obj}

		steps = [][]string{
			{"nasm", "-f", "elf64", "-o", obj, src},
			append([]string{"ld", "-s", "-o", opts.Output, obj}, opts.LinkerArgs...),
		}
	case config.BackendQBE:
		src := opts.Output + ".s"
		res.Intermediates = []string{src}

		steps = [][]string{
			append([]string{"cc", "-no-pie", "-o", opts.Output, src}, opts.LinkerArgs...),
		}
	default:
		return res, errors.New("no toolchain for backend %q", cfg.BackendName)
	}

	if !opts.Keep {
		defer removeAll(ctx, res.Intermediates)
	}
	res.Kept = opts.Keep

	if err = os.WriteFile(res.Intermediates[0], []byte(asm), 0o644); err != nil {
		return res, errors.Wrap(err, "write assembly")
	}

	for _, args := range steps {
		if err = run(ctx, args); err != nil {
			return res, err
		}
	}

	return res, nil
}

func run(ctx context.Context, args []string) error {
	tlog.SpanFromContext(ctx).Printw("run", "cmd", strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return errors.Wrap(err, "%s failed\noutput:\n%s", args[0], output)
	}

	return nil
}

func removeAll(ctx context.Context, files []string) {
	for _, f := range files {
		if err := os.Remove(f); err != nil && !os.IsNotExist(err) {
			tlog.SpanFromContext(ctx).Printw("remove intermediate", "file", f, "err", err)
		}
	}
}

// Available reports which of the tools the backend needs are missing from PATH.
func Available(cfg *config.Config) (missing []string) {
	tools := []string{"nasm", "ld"}
	if cfg.BackendName == config.BackendQBE {
		tools = []string{"cc"}
	}

	for _, t := range tools {
		if _, err := exec.LookPath(t); err != nil {
			missing = append(missing, t)
		}
	}

	return missing
}
