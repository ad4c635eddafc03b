package main

import (
	"os"

	"github.com/achilleasa/widebvh/cmd"
	"github.com/urfave/cli"
)

func main() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	app := cli.NewApp()
	app.Name = "widebvh"
	app.Usage = "build and query wide fan-out bounding volume hierarchies"
	app.Version = "0.0.1"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "demo",
			Usage: "build a tree from randomly scattered leaves and exercise insert/refit/query/treelet",
			Description: `
Scatter a batch of leaves at random positions, insert them into a wide
fan-out tree, run an overlap query, perturb one leaf and refit, run the
query again, collect a budgeted treelet around the root, then print a
summary table of the resulting statistics.`,
			Flags: []cli.Flag{
				cli.IntFlag{
					Name:  "fan-out",
					Value: 4,
					Usage: "tree fan-out: one of 2, 4, 8, 16, 32",
				},
				cli.IntFlag{
					Name:  "leaves",
					Value: 1024,
					Usage: "number of randomly scattered leaves to insert",
				},
				cli.IntFlag{
					Name:  "treelet-budget",
					Value: 64,
					Usage: "maximum number of nodes the treelet collector may absorb",
				},
				cli.Int64Flag{
					Name:  "seed",
					Value: 1,
					Usage: "PRNG seed for leaf placement",
				},
			},
			Action: cmd.Demo,
		},
	}

	app.Run(os.Args)
}
