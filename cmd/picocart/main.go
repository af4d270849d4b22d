package main

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io/ioutil"
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/bodgit/picocart"
	"github.com/bodgit/picocart/cart"
	"github.com/bodgit/picocart/gfx"
	"github.com/bodgit/picocart/handles"
	"github.com/bodgit/picocart/palette"
	"github.com/bodgit/picocart/synth"
	"github.com/urfave/cli/v2"
)

const defaultDB = "picocart.db"

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:  "version, V",
		Usage: "print the version",
	}
}

func newLogger(c *cli.Context) *log.Logger {
	logger := log.New(ioutil.Discard, "", 0)
	if c.Bool("verbose") {
		logger.SetOutput(os.Stderr)
	}
	return logger
}

// sfxPlayer loads the cartridge named by the first argument and returns a
// player for the sound effect numbered by the second.
func sfxPlayer(c *cli.Context) (*synth.Player, error) {
	crt, err := picocart.LoadFile(c.Args().Get(0))
	if err != nil {
		return nil, err
	}

	n, err := strconv.Atoi(c.Args().Get(1))
	if err != nil {
		return nil, err
	}

	f := picocart.NewFrame(crt, handles.NewMemStore(), picocart.FrameOptions{
		Audio: synth.Options{
			SampleRate: c.Int("rate"),
		},
		Logger: newLogger(c),
	})
	return f.SoundEffect(n), nil
}

func loadImage(file string) (image.Image, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, _, err := image.Decode(f)
	return m, err
}

// loadPalette reads the palette named by the --palette flag, one colour per
// pixel, falling back to the default palette.
func loadPalette(c *cli.Context) (palette.Palette, error) {
	if c.String("palette") == "" {
		return palette.Default, nil
	}

	m, err := loadImage(c.String("palette"))
	if err != nil {
		return nil, err
	}
	return palette.FromImage(m), nil
}

func sampleLimit(c *cli.Context) int {
	return int(c.Float64("seconds") * float64(c.Int("rate")))
}

func main() {
	app := cli.NewApp()

	app.Name = "picocart"
	app.Usage = "Fantasy console cartridge utility"
	app.Version = "1.0.0"

	cwd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}

	paletteFlag := &cli.StringFlag{
		Name:  "palette",
		Usage: "image whose pixels, read row by row, replace the default palette",
	}

	audioFlags := []cli.Flag{
		&cli.IntFlag{
			Name:  "rate",
			Value: synth.DefaultSampleRate,
			Usage: "sample rate in Hz",
		},
		&cli.Float64Flag{
			Name:  "seconds",
			Value: 0,
			Usage: "stop after this many seconds, required for looping sound effects",
		},
	}

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "db",
			EnvVars: []string{"PICOCART_DB"},
			Value:   filepath.Join(cwd, defaultDB),
			Usage:   "path to database",
		},
		&cli.BoolFlag{
			Name:  "verbose, v",
			Usage: "increase verbosity",
		},
	}

	app.Commands = []*cli.Command{
		{
			Name:        "scan",
			Usage:       "Scan filesystem and index cartridges",
			Description: "",
			ArgsUsage:   "DIRECTORY",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:  "workers",
					Value: picocart.DefaultWorkers,
					Usage: "number of cartridges to decode in parallel",
				},
			},
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				p, err := picocart.New(c.String("db"), newLogger(c))
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				defer p.Close()

				if err := p.Scan(c.Args().First(), c.Int("workers")); err != nil {
					return cli.NewExitError(err, 1)
				}

				return nil
			},
		},
		{
			Name:        "list",
			Usage:       "List indexed cartridges",
			Description: "",
			Action: func(c *cli.Context) error {
				p, err := picocart.New(c.String("db"), newLogger(c))
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				defer p.Close()

				entries, err := p.Library().Entries()
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				for _, e := range entries {
					fmt.Printf("%s\t%s\t%s\t%s\n", e.SHA1, e.Title, e.Author, e.Path)
				}

				return nil
			},
		},
		{
			Name:        "info",
			Usage:       "Show the contents of a cartridge",
			Description: "",
			ArgsUsage:   "FILE",
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				crt, err := picocart.LoadFile(c.Args().First())
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				e, err := picocart.NewEntry(c.Args().First(), "", crt)
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				fmt.Printf("Title:   %s\n", e.Title)
				fmt.Printf("Author:  %s\n", e.Author)
				fmt.Printf("Version: %d\n", e.Version)
				fmt.Printf("Code:    %d bytes\n", len(crt.Lua))
				fmt.Printf("Sfx:     %d\n", e.Sfx)
				fmt.Printf("Music:   %d\n", e.Music)
				fmt.Printf("Label:   %t\n", crt.Label != nil)

				return nil
			},
		},
		{
			Name:        "sheet",
			Usage:       "Export the sprite sheet or label as a PNG",
			Description: "",
			ArgsUsage:   "FILE OUTPUT",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:  "scale",
					Value: 1,
					Usage: "integer scale factor",
				},
				&cli.BoolFlag{
					Name:  "label",
					Usage: "export the label instead of the sprite sheet",
				},
				paletteFlag,
			},
			Action: func(c *cli.Context) error {
				if c.NArg() < 2 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				crt, err := picocart.LoadFile(c.Args().Get(0))
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				g := crt.Gfx
				if c.Bool("label") {
					g = crt.Label
				}
				if g == nil {
					return cli.NewExitError("cartridge has nothing to export", 1)
				}

				p, err := loadPalette(c)
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				m, err := gfx.Scale(g.Paletted(p), c.Int("scale"))
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				f, err := os.Create(c.Args().Get(1))
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				defer f.Close()

				if err := png.Encode(f, m); err != nil {
					return cli.NewExitError(err, 1)
				}

				return nil
			},
		},
		{
			Name:        "label",
			Usage:       "Replace the label of a cartridge with a picture",
			Description: "",
			ArgsUsage:   "FILE IMAGE OUTPUT",
			Flags: []cli.Flag{
				paletteFlag,
			},
			Action: func(c *cli.Context) error {
				if c.NArg() < 3 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				crt, err := picocart.LoadFile(c.Args().Get(0))
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				m, err := loadImage(c.Args().Get(1))
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				p, err := loadPalette(c)
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				if crt.Label, err = cart.LabelFromImage(m, p); err != nil {
					return cli.NewExitError(err, 1)
				}

				f, err := os.Create(c.Args().Get(2))
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				defer f.Close()

				if err := cart.EncodePNG(f, crt); err != nil {
					return cli.NewExitError(err, 1)
				}

				return nil
			},
		},
		{
			Name:        "wav",
			Usage:       "Render a sound effect to a WAV file",
			Description: "",
			ArgsUsage:   "FILE SFX OUTPUT",
			Flags:       audioFlags,
			Action: func(c *cli.Context) error {
				if c.NArg() < 3 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				p, err := sfxPlayer(c)
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				f, err := os.Create(c.Args().Get(2))
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				defer f.Close()

				if _, err := synth.WriteWAV(f, p, sampleLimit(c)); err != nil {
					return cli.NewExitError(err, 1)
				}

				return nil
			},
		},
		{
			Name:        "play",
			Usage:       "Play a sound effect",
			Description: "",
			ArgsUsage:   "FILE SFX",
			Flags:       audioFlags,
			Action: func(c *cli.Context) error {
				if c.NArg() < 2 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				p, err := sfxPlayer(c)
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				if err := play(p, sampleLimit(c)); err != nil {
					return cli.NewExitError(err, 1)
				}

				return nil
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
