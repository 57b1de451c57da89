package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"
	"runtime/pprof"
	"strings"

	plt "github.com/phil-mansfield/pyplot"

	"github.com/phil-mansfield/emfield"
	"github.com/phil-mansfield/emfield/density"
	"github.com/phil-mansfield/emfield/io"
	"github.com/phil-mansfield/emfield/render"
)

// FileGroup contains utility files for logging and writing profiles to.
type FileGroup struct {
	log, prof *os.File
}

// Close closes the files inside FileGroup.
func (fg *FileGroup) Close() {
	if fg.log != nil {
		err := fg.log.Close()
		if err != nil {
			log.Fatal(err.Error())
		}
	}

	if fg.prof != nil {
		pprof.StopCPUProfile()
		err := fg.prof.Close()
		if err != nil {
			log.Fatal(err.Error())
		}
	}
}

func main() {
	var (
		configStr, jsonStr, exampleConfig string
		eOut, tableOut, gridOut           string
		safety, threads                   int
		logFlag, show                     bool
	)
	vars := map[string]*string{
		"Config":        &configStr,
		"JSON":          &jsonStr,
		"ExampleConfig": &exampleConfig,
	}

	flag.StringVar(
		&configStr, "Config", "",
		"INI configuration file describing the charges, densities and plot.",
	)
	flag.StringVar(
		&jsonStr, "JSON", "",
		"JSON configuration file in the format written by the charge editor.",
	)
	flag.StringVar(
		&exampleConfig, "ExampleConfig", "", "Prints an example "+
			"configuration file of the specified type to stdout. The only "+
			"accepted argument is 'Config'.",
	)
	flag.IntVar(
		&safety, "Safety", int(density.SafetyNone),
		"Expression safety level: 0 rejects expression densities, 1 skips "+
			"them and 2 evaluates them in a sandbox.",
	)
	flag.StringVar(
		&eOut, "EOut", "",
		"Output file of the electric field plot. Defaults to "+
			"'<Name> E-Field.png'.",
	)
	flag.StringVar(
		&tableOut, "TableOut", "",
		"If set, the field and density are written to this file as a text "+
			"table.",
	)
	flag.StringVar(
		&gridOut, "GridOut", "",
		"If set, the field and density are written to this file as binary "+
			"grids.",
	)
	flag.IntVar(
		&threads, "Threads", runtime.NumCPU(),
		"Number of threads used. Default is the number of logical cores.",
	)
	flag.BoolVar(&logFlag, "Log", false, "Log progress to stderr.")
	flag.BoolVar(&show, "Show", false, "Show the plot after saving it.")

	flag.Parse()

	modeName, err := getModeName(vars)
	if err != nil {
		log.Fatal(err.Error())
	}

	var con *io.Config
	switch modeName {
	case "Config":
		con, err = io.ReadConfig(configStr)
	case "JSON":
		con, err = io.ReadJSONConfig(jsonStr)
	case "ExampleConfig":
		switch exampleConfig {
		case "Config":
			fmt.Println(io.ExampleConfigFile)
		default:
			log.Fatal(
				"Unrecognized 'ExampleConfig' argument. The only recognized " +
					"argument is 'Config'.",
			)
		}
		return
	default:
		panic("Impossible")
	}
	if err != nil {
		log.Fatal(err.Error())
	}

	if safety < int(density.SafetyNone) || safety > int(density.SafetyFull) {
		log.Fatalf("'Safety' must be one of [0 | 1 | 2], but is %d.", safety)
	}
	if threads < 1 {
		log.Fatalf("'Threads' must be positive, but is %d.", threads)
	}
	if _, err := render.LookupColormap(con.Plot.Colormap); err != nil {
		log.Fatal(err.Error())
	}
	runtime.GOMAXPROCS(threads)

	fg := setupIO(con)
	defer fg.Close()

	res, err := emfield.Compute(con, &emfield.RunConfig{
		Safety:  density.Safety(safety),
		Workers: threads,
		Log:     logFlag,
	})
	if err != nil {
		log.Fatal(err.Error())
	}
	if logFlag {
		log.Println(res.Describe())
	}

	if tableOut != "" {
		if err := io.WriteTable(tableOut, res.E, res.Rho); err != nil {
			log.Fatal(err.Error())
		}
	}

	if gridOut != "" {
		if err := io.WriteGrids(gridOut, res.E, res.Rho); err != nil {
			log.Fatal(err.Error())
		}
	}

	if con.Plot.EField {
		err := render.PlotField(res.E, res.Rho, res.Charges, &render.PlotOptions{
			Name: con.Plot.Name, Fname: eOut,
			Colormap: con.Plot.Colormap, Show: show,
		})
		if err != nil {
			log.Printf("Failed to plot E-Field: %s", err.Error())
		} else {
			plt.Execute()
		}
	}
}

// getModeName returns the name of the mode and fails with a descriptive error
// if the user provided less or more than one mode flag.
func getModeName(vars map[string]*string) (string, error) {
	setNames := []string{}

	for name, varPtr := range vars {
		if *varPtr != "" {
			setNames = append(setNames, name)
		}
	}

	if len(setNames) == 0 {
		return "", fmt.Errorf("No configuration file has been given.")
	}

	if len(setNames) > 1 {
		return "", fmt.Errorf(
			"The following flags were set: %s, but emfield only accepts "+
				"one of them at a time.",
			strings.Join(setNames, ", "),
		)
	}

	return setNames[0], nil
}

// setupIO opens the log and profile files named by the configuration.
func setupIO(con *io.Config) *FileGroup {
	var err error
	fg := new(FileGroup)

	if con.Plot.ValidLogFile() {
		fg.log, err = os.Create(con.Plot.LogFile)
		if err != nil {
			log.Fatal(err.Error())
		}
		log.SetOutput(fg.log)
	}

	if con.Plot.ValidProfileFile() {
		fg.prof, err = os.Create(con.Plot.ProfileFile)
		if err != nil {
			log.Fatal(err.Error())
		}
		err = pprof.StartCPUProfile(fg.prof)
		if err != nil {
			log.Fatal(err.Error())
		}
	}

	return fg
}
