package resolve

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/pflag"
)

// Options are the raw build options from the command line.
type Options struct {
	OS      string
	Arch    string
	Target  string
	Verbose bool

	// OSSet and ArchSet record whether --os and --arch were given.
	OSSet   bool
	ArchSet bool
}

// AddFlags registers the build flags on fs.
func (o *Options) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.OS, "os", "", "target OS (linux, windows, darwin); defaults to the host OS")
	fs.StringVar(&o.Arch, "arch", "", "target arch (i686, x86_64, arm64); defaults to x86_64")
	fs.StringVar(&o.Target, "target", "", "product to build; required when several products are configured")
	fs.BoolVarP(&o.Verbose, "verbose", "v", false, "enable debug logging")
}

// Complete records which flags were set explicitly.
func (o *Options) Complete(fs *pflag.FlagSet) {
	o.OSSet = fs.Changed("os")
	o.ArchSet = fs.Changed("arch")
}

// Parse parses build arguments. Unknown flags, missing flag values and
// positional arguments are configuration errors.
func Parse(args []string) (*Options, error) {
	opts := &Options{}
	fs := pflag.NewFlagSet("build", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	opts.AddFlags(fs)

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil, err
		}
		return nil, &ConfigError{Msg: err.Error(), Err: err}
	}
	if fs.NArg() > 0 {
		return nil, &ConfigError{Msg: fmt.Sprintf("unexpected argument %q", fs.Arg(0))}
	}

	opts.Complete(fs)
	return opts, nil
}
