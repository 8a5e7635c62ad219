/*
main.go - Command-line calculation

PURPOSE:
  Calculates the arrears for one configuration document, prints a summary
  and optionally writes the workbook, CSV and PDF reports. Reference data
  is cached in the same SQLite database the server uses.

USAGE:
  arrears [flags] employee.json

  -settings  YAML process settings (db path, source URLs)
  -xlsx      write the workbook to this file
  -csv       write the CSV report to this file
  -pdf       write the arrears statement to this file
  -save      write the normalized configuration to this file

EXIT CODES:
  0 success, 1 internal error, 2 invalid input,
  3 reference data unavailable, 4 numeric domain violation

SEE ALSO:
  - factory/config.go: the document format
  - export/report.go: the reports
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"text/tabwriter"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/warp/wage-arrears/config"
	"github.com/warp/wage-arrears/export"
	"github.com/warp/wage-arrears/factory"
	"github.com/warp/wage-arrears/generic"
	"github.com/warp/wage-arrears/payroll"
	"github.com/warp/wage-arrears/source"
	"github.com/warp/wage-arrears/store/sqlite"
)

type options struct {
	input string
	xlsx  string
	csv   string
	pdf   string
	save  string
}

// app is one CLI invocation with its dependencies.
type app struct {
	loader  *source.Loader
	factory *factory.ConfigFactory
	log     *zap.Logger
	stdout  io.Writer
}

func main() {
	settings := flag.String("settings", os.Getenv("ARREARS_CONFIG"), "YAML process settings")
	var opts options
	flag.StringVar(&opts.xlsx, "xlsx", "", "write the workbook to `file`")
	flag.StringVar(&opts.csv, "csv", "", "write the CSV report to `file`")
	flag.StringVar(&opts.pdf, "pdf", "", "write the arrears statement to `file`")
	flag.StringVar(&opts.save, "save", "", "write the normalized configuration to `file`")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] employee.json\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	opts.input = flag.Arg(0)

	cfg := config.MustLoad(*settings)

	var log *zap.Logger
	var err error
	if cfg.Env == config.EnvProd {
		log, err = zap.NewProduction()
	} else {
		log, err = zap.NewDevelopment()
	}
	if err != nil {
		log = zap.NewNop()
	}
	defer log.Sync()

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "database:", err)
		os.Exit(1)
	}
	defer store.Close()

	client := &http.Client{Timeout: cfg.FetchTimeout}
	a := &app{
		loader: source.NewLoader(store,
			source.NewXMLCalendar(client).WithURL(cfg.CalendarURL),
			source.NewCBRKeyRates(client).WithURL(cfg.KeyRateURL),
			log,
		),
		factory: factory.NewConfigFactory(),
		log:     log,
		stdout:  os.Stdout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := a.run(ctx, opts); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		store.Close()
		os.Exit(exitCode(err))
	}
}

func (a *app) run(ctx context.Context, opts options) error {
	data, err := os.ReadFile(opts.input)
	if err != nil {
		return err
	}
	in, err := a.factory.Parse(data)
	if err != nil {
		return err
	}

	cal, rates, err := a.loader.Load(ctx, in)
	if err != nil {
		return err
	}
	res, err := payroll.Calculate(in, cal, rates)
	if err != nil {
		return err
	}

	rep := export.Report{RunID: uuid.NewString(), Input: in, Result: res}
	printSummary(a.stdout, rep)

	outputs := []struct {
		path  string
		write func(io.Writer) error
	}{
		{opts.xlsx, rep.WriteXLSX},
		{opts.csv, rep.WriteCSV},
		{opts.pdf, rep.WritePDF},
	}
	for _, o := range outputs {
		if o.path == "" {
			continue
		}
		if err := writeFile(o.path, o.write); err != nil {
			return err
		}
		a.log.Info("report written", zap.String("path", o.path))
	}

	if opts.save != "" {
		doc, err := a.factory.Encode(in)
		if err != nil {
			return err
		}
		if err := os.WriteFile(opts.save, doc, 0o644); err != nil {
			return err
		}
	}
	return nil
}

func printSummary(w io.Writer, rep export.Report) {
	res := rep.Result
	sum := res.Summary()
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)

	fmt.Fprintf(tw, "Period\tNet paid\tNet indexed\tUnderpayment\tCompensation\t\n")
	for _, g := range res.Months {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t\n",
			generic.YearMonth{Year: g.Year, Month: g.Month},
			g.NetPaid.StringFixed(2), g.NetIndexed.StringFixed(2),
			g.Underpayment.StringFixed(2), g.Compensation.StringFixed(2))
	}
	fmt.Fprintf(tw, "Total\t%s\t%s\t%s\t%s\t\n",
		res.Totals.NetPaid.StringFixed(2), res.Totals.NetIndexed.StringFixed(2),
		res.Totals.Underpayment.StringFixed(2), res.Totals.Compensation.StringFixed(2))
	tw.Flush()

	fmt.Fprintf(w, "\nRun %s: %d payments, %d underpaid\n", rep.RunID, sum.Events, sum.Underpaid)
	fmt.Fprintf(w, "Due: %s\n", sum.Due.StringFixed(2))
	for _, v := range res.Vacations {
		fmt.Fprintf(w, "Vacation %s: difference %s\n", v.Vacation.Period(), v.Difference.StringFixed(2))
	}
	if u := res.Unused; u != nil {
		fmt.Fprintf(w, "Unused vacation: %d days, difference %s\n", u.UnusedDays, u.DifferenceNet.StringFixed(2))
	}
}

func writeFile(path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return write(f)
}

func exitCode(err error) int {
	switch {
	case generic.IsInputInvalid(err):
		return 2
	case generic.IsExternalMissing(err):
		return 3
	case generic.IsNumericDomain(err):
		return 4
	case errors.Is(err, os.ErrNotExist):
		return 2
	}
	return 1
}
