package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"gopkg.in/urfave/cli.v1"

	"github.com/daimatz/tinyjvm/pkg/config"
	"github.com/daimatz/tinyjvm/pkg/inspect"
	"github.com/daimatz/tinyjvm/pkg/logging"
	"github.com/daimatz/tinyjvm/pkg/vm"
)

var errUsage = errors.New("usage: tinyjvm [options] <file.class>")

var (
	configFlag = cli.StringFlag{
		Name:  "config",
		Usage: "read settings from `FILE` instead of searching for " + config.FileName,
	}
	verbosityFlag = cli.IntFlag{
		Name:  "verbosity",
		Usage: "log verbosity: 0 quiet, 1 info, 2 debug",
	}
	logFileFlag = cli.StringFlag{
		Name:  "log-file",
		Usage: "write the log to `FILE` instead of stderr",
	}
	cborFlag = cli.StringFlag{
		Name:  "cbor",
		Usage: "also write a CBOR snapshot of the class to `FILE`",
	}
)

func newApp(stdout, stderr io.Writer) *cli.App {
	var cfg *config.Config

	app := cli.NewApp()
	app.Name = "tinyjvm"
	app.Usage = "run the main method of a class file"
	app.ArgsUsage = "<file.class>"
	app.HideVersion = true
	app.Writer = stdout
	app.ErrWriter = stderr
	app.Flags = []cli.Flag{configFlag, verbosityFlag, logFileFlag}

	app.Before = func(c *cli.Context) error {
		var err error
		if path := c.GlobalString(configFlag.Name); path != "" {
			cfg, err = config.Load(path)
		} else {
			cfg, err = config.FindAndLoad(".")
		}
		if err != nil {
			return err
		}
		if c.GlobalIsSet(verbosityFlag.Name) {
			cfg.Log.Verbosity = c.GlobalInt(verbosityFlag.Name)
		}
		if c.GlobalIsSet(logFileFlag.Name) {
			cfg.Log.File = c.GlobalString(logFileFlag.Name)
		}
		logging.Configure(cfg.Log.Verbosity, cfg.Log.File)
		if cfg.Path != "" {
			logging.GetLogger("cli").Infof("using configuration %s", cfg.Path)
		}
		return nil
	}

	app.Action = func(c *cli.Context) error {
		path, err := classPath(c)
		if err != nil {
			return err
		}
		cf, err := cfg.ParserOptions().ParseFile(path)
		if err != nil {
			return err
		}
		v := vm.NewVM(cf)
		v.Stdout = stdout
		return v.Execute()
	}

	app.Commands = []cli.Command{
		{
			Name:      "inspect",
			Usage:     "describe a class file without running it",
			ArgsUsage: "<file.class>",
			Flags:     []cli.Flag{cborFlag},
			Action: func(c *cli.Context) error {
				path, err := classPath(c)
				if err != nil {
					return err
				}
				cf, err := cfg.ParserOptions().ParseFile(path)
				if err != nil {
					return err
				}
				inspect.Describe(stdout, cf)

				out := c.String(cborFlag.Name)
				if out == "" {
					return nil
				}
				data, err := inspect.MarshalSnapshot(cf)
				if err != nil {
					return err
				}
				return os.WriteFile(out, data, 0644)
			},
		},
	}

	return app
}

// classPath returns the single positional argument.
func classPath(c *cli.Context) (string, error) {
	if c.NArg() != 1 {
		if c.Command.Name != "" {
			cli.ShowCommandHelp(c, c.Command.Name)
		} else {
			cli.ShowAppHelp(c)
		}
		return "", errUsage
	}
	return c.Args().First(), nil
}

// isTerminal reports whether w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// printError writes err as "Error: <kind>: <detail>". The prefix is colored
// only when w itself is a terminal.
func printError(w io.Writer, err error) {
	prefix := color.New(color.FgRed, color.Bold)
	if isTerminal(w) {
		prefix.EnableColor()
	} else {
		prefix.DisableColor()
	}
	prefix.Fprint(w, "Error")
	if kind := vm.Kind(err); kind != "" {
		fmt.Fprintf(w, ": %s: %v\n", kind, err)
		return
	}
	fmt.Fprintf(w, ": %v\n", err)
}

func main() {
	if err := newApp(os.Stdout, os.Stderr).Run(os.Args); err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}
