package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"

	"github.com/mtlprog/networth/internal/allocation"
	"github.com/mtlprog/networth/internal/domain"
	"github.com/mtlprog/networth/internal/export"
	"github.com/mtlprog/networth/internal/render"
	"github.com/mtlprog/networth/internal/target"
)

var (
	dateFlag  = &cli.StringFlag{Name: "date", Aliases: []string{"d"}, Usage: "snapshot date (YYYY-MM-DD), latest when omitted"}
	jsonFlag  = &cli.BoolFlag{Name: "json", Usage: "print JSON instead of a report"}
	plainFlag = &cli.BoolFlag{Name: "plain", Usage: "print raw markdown without terminal styling"}
	fileFlag  = &cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "JSON input file", Required: true}
)

func dateArg(c *cli.Context) (*time.Time, error) {
	s := c.String("date")
	if s == "" {
		return nil, nil
	}
	d, err := domain.ParseDate(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling output: %w", err)
	}
	_, err = fmt.Fprintln(os.Stdout, string(data))
	return err
}

// output prints v as JSON with --json, otherwise its markdown report.
func output(c *cli.Context, v any, markdown func() string) error {
	if c.Bool("json") {
		return printJSON(v)
	}
	return render.Write(os.Stdout, markdown(), c.Bool("plain"))
}

func valueCommand() *cli.Command {
	return &cli.Command{
		Name:  "value",
		Usage: "value a snapshot and print net worth",
		Flags: []cli.Flag{dateFlag, jsonFlag, plainFlag},
		Action: withApp(func(c *cli.Context, a *app) error {
			date, err := dateArg(c)
			if err != nil {
				return err
			}
			report, err := a.valuation.ValueSnapshot(c.Context, date)
			if err != nil {
				return err
			}
			return output(c, report, func() string { return render.Valuation(report) })
		}),
	}
}

func allocationCommand() *cli.Command {
	return &cli.Command{
		Name:  "allocation",
		Usage: "compare current allocation with targets",
		Flags: []cli.Flag{dateFlag, jsonFlag, plainFlag},
		Action: withApp(func(c *cli.Context, a *app) error {
			date, err := dateArg(c)
			if err != nil {
				return err
			}
			report, err := a.allocation.Allocation(c.Context, date)
			if err != nil {
				return err
			}
			return output(c, report, func() string { return render.Allocation(report) })
		}),
	}
}

func rebalanceCommand() *cli.Command {
	return &cli.Command{
		Name:  "rebalance",
		Usage: "suggest trades that restore the target allocation",
		Flags: []cli.Flag{
			dateFlag, jsonFlag, plainFlag,
			&cli.StringFlag{Name: "tolerance", Usage: "override every target's tolerance, in percentage points"},
		},
		Action: withApp(func(c *cli.Context, a *app) error {
			date, err := dateArg(c)
			if err != nil {
				return err
			}
			var tolerance *decimal.Decimal
			if s := c.String("tolerance"); s != "" {
				t, err := decimal.NewFromString(s)
				if err != nil || t.IsNegative() {
					return domain.ValidationError("tolerance", s, "must be a non-negative number")
				}
				tolerance = &t
			}
			report, err := a.allocation.Rebalancing(c.Context, date, tolerance)
			if err != nil {
				return err
			}
			return output(c, report, func() string { return render.Rebalancing(report) })
		}),
	}
}

func refreshCommand() *cli.Command {
	return &cli.Command{
		Name:      "refresh",
		Usage:     "fetch current prices into the rate cache",
		ArgsUsage: "[SYMBOL...]",
		Action: withApp(func(c *cli.Context, a *app) error {
			var results []domain.RefreshResult
			if c.Args().Len() > 0 {
				results = a.valuation.RefreshRates(c.Context, c.Args().Slice())
			} else {
				var err error
				if results, err = a.valuation.RefreshHeld(c.Context); err != nil {
					return err
				}
			}

			for _, r := range results {
				if r.Error != "" {
					fmt.Printf("%-8s failed: %s\n", r.Symbol, r.Error)
					continue
				}
				fmt.Printf("%-8s %s\n", r.Symbol, render.Money(*r.Price, a.valuation.Currency()))
			}
			failed := lo.CountBy(results, func(r domain.RefreshResult) bool { return r.Error != "" })
			if failed > 0 {
				return cli.Exit(fmt.Sprintf("%d of %d symbols failed", failed, len(results)), 1)
			}
			return nil
		}),
	}
}

func targetsCommand() *cli.Command {
	return &cli.Command{
		Name:  "targets",
		Usage: "manage allocation targets",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "print the current target set",
				Action: withApp(func(c *cli.Context, a *app) error {
					targets, err := a.targets.List(c.Context)
					if err != nil {
						return err
					}
					return printJSON(targets)
				}),
			},
			{
				Name:  "set",
				Usage: "replace the target set from a JSON array",
				Flags: []cli.Flag{
					fileFlag,
					&cli.BoolFlag{Name: "allow-invalid-sum", Usage: "save even if percentages do not sum to 100"},
				},
				Action: withApp(func(c *cli.Context, a *app) error {
					var targets []domain.AllocationTarget
					if err := readJSON(c.String("file"), &targets); err != nil {
						return err
					}
					saved, validation, err := a.targets.Replace(c.Context, targets, c.Bool("allow-invalid-sum"))
					if err != nil {
						return err
					}
					if !validation.Valid {
						fmt.Fprintln(os.Stderr, "warning:", validation.Message)
					}
					fmt.Printf("saved %d targets, sum %s\n", len(saved), render.Percent(validation.Sum))
					return nil
				}),
			},
			{
				Name:  "remaining",
				Usage: "print how much of 100% a partial target set leaves unassigned",
				Flags: []cli.Flag{fileFlag},
				Action: func(c *cli.Context) error {
					var targets []domain.AllocationTarget
					if err := readJSON(c.String("file"), &targets); err != nil {
						return err
					}
					fmt.Println(render.Percent(target.RemainingPercentage(targets)))
					return nil
				},
			},
		},
	}
}

func snapshotCommand() *cli.Command {
	return &cli.Command{
		Name:  "snapshot",
		Usage: "record and list snapshots",
		Subcommands: []*cli.Command{
			{
				Name:  "create",
				Usage: "record a snapshot from a JSON file",
				Flags: []cli.Flag{fileFlag},
				Action: withApp(func(c *cli.Context, a *app) error {
					var in domain.SnapshotInput
					if err := readJSON(c.String("file"), &in); err != nil {
						return err
					}
					snap, err := a.snapshots.Create(c.Context, in)
					if err != nil {
						return err
					}
					fmt.Printf("snapshot %d recorded for %s\n", snap.ID, snap.Date.Format(domain.DateLayout))
					return nil
				}),
			},
			{
				Name:  "list",
				Usage: "list recent snapshots",
				Flags: []cli.Flag{&cli.IntFlag{Name: "limit", Value: 30}},
				Action: withApp(func(c *cli.Context, a *app) error {
					snapshots, err := a.snapshots.List(c.Context, c.Int("limit"))
					if err != nil {
						return err
					}
					for _, s := range snapshots {
						fmt.Printf("%s  %s\n", s.Date.Format(domain.DateLayout), s.Notes)
					}
					return nil
				}),
			},
		},
	}
}

func assetCommand() *cli.Command {
	return &cli.Command{
		Name:  "asset",
		Usage: "manage the asset catalogue",
		Subcommands: []*cli.Command{
			{
				Name:  "add",
				Usage: "register or update an asset",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "symbol", Required: true},
					&cli.StringFlag{Name: "name"},
					&cli.StringFlag{Name: "class", Required: true, Usage: "CRYPTO, FIAT, STOCK, REAL_ESTATE, COMMODITY or OTHER"},
					&cli.StringFlag{Name: "source", Usage: "oracle or manual"},
					&cli.StringFlag{Name: "external-id", Usage: "price oracle coin ID"},
					&cli.StringFlag{Name: "currency"},
				},
				Action: withApp(func(c *cli.Context, a *app) error {
					asset, err := a.snapshots.RegisterAsset(c.Context, domain.Asset{
						Symbol:          c.String("symbol"),
						Name:            c.String("name"),
						Class:           domain.AssetClass(c.String("class")),
						ValuationSource: domain.ValuationSource(c.String("source")),
						ExternalID:      c.String("external-id"),
						Currency:        c.String("currency"),
					})
					if err != nil {
						return err
					}
					fmt.Printf("asset %s registered (%s, %s)\n", asset.Symbol, asset.Class, asset.ValuationSource)
					return nil
				}),
			},
			{
				Name:  "list",
				Usage: "list registered assets",
				Action: withApp(func(c *cli.Context, a *app) error {
					assets, err := a.snapshots.ListAssets(c.Context)
					if err != nil {
						return err
					}
					return printJSON(assets)
				}),
			},
		},
	}
}

func rateCommand() *cli.Command {
	return &cli.Command{
		Name:  "rate",
		Usage: "record and inspect historical rates",
		Subcommands: []*cli.Command{
			{
				Name:  "set",
				Usage: "record the price of an asset on a date",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "symbol", Required: true},
					&cli.StringFlag{Name: "price", Required: true},
					&cli.StringFlag{Name: "date", Required: true, Usage: "YYYY-MM-DD"},
					&cli.StringFlag{Name: "currency"},
					&cli.BoolFlag{Name: "skip-existing", Usage: "do nothing if a rate is already recorded for the date"},
				},
				Action: withApp(func(c *cli.Context, a *app) error {
					date, err := domain.ParseDate(c.String("date"))
					if err != nil {
						return err
					}
					price, err := decimal.NewFromString(c.String("price"))
					if err != nil {
						return domain.ValidationError("price", c.String("price"), "not a number")
					}

					if c.Bool("skip-existing") {
						exists, err := a.rates.HasRateForDate(c.Context, c.String("symbol"), date, c.String("currency"))
						if err != nil {
							return err
						}
						if exists {
							fmt.Println("rate already recorded, skipped")
							return nil
						}
					}

					return a.rates.SaveHistoricalRate(c.Context, domain.RateInput{
						Symbol:    c.String("symbol"),
						Currency:  c.String("currency"),
						Price:     price,
						Timestamp: date,
					})
				}),
			},
			{
				Name:      "history",
				Usage:     "print recorded rates of an asset",
				ArgsUsage: "SYMBOL",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Value: 30},
					&cli.StringFlag{Name: "from", Usage: "YYYY-MM-DD, requires --to"},
					&cli.StringFlag{Name: "to", Usage: "YYYY-MM-DD"},
					&cli.StringFlag{Name: "currency"},
				},
				Action: withApp(func(c *cli.Context, a *app) error {
					symbol := c.Args().First()
					if symbol == "" {
						return cli.Exit("SYMBOL is required", 2)
					}

					var (
						rates []domain.Rate
						err   error
					)
					if c.IsSet("from") || c.IsSet("to") {
						start, perr := domain.ParseDate(c.String("from"))
						if perr != nil {
							return perr
						}
						end, perr := domain.ParseDate(c.String("to"))
						if perr != nil {
							return perr
						}
						rates, err = a.rates.HistoricalRatesRange(c.Context, symbol, c.String("currency"), start, end)
					} else {
						rates, err = a.rates.HistoricalRatesForAsset(c.Context, symbol, c.String("currency"), c.Int("limit"))
					}
					if err != nil {
						return err
					}

					for _, r := range rates {
						fmt.Printf("%s  %s  %s\n", r.Timestamp.Format(time.RFC3339), render.Money(r.Price, r.Currency), r.Source)
					}
					return nil
				}),
			},
			{
				Name:  "clear-cache",
				Usage: "drop cached current prices, all of them or one symbol's",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "symbol"},
					&cli.StringFlag{Name: "currency"},
				},
				Action: withApp(func(c *cli.Context, a *app) error {
					if s := c.String("symbol"); s != "" {
						return a.rates.DeleteCachedRate(c.Context, s, c.String("currency"))
					}
					return a.rates.ClearCache(c.Context)
				}),
			},
		},
	}
}

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "write the allocation and rebalancing reports to a workbook and Google Sheets",
		Flags: []cli.Flag{
			dateFlag,
			&cli.StringFlag{Name: "xlsx", Usage: "path of an Excel workbook to write"},
			&cli.BoolFlag{Name: "sheets", Usage: "write to the configured Google spreadsheet"},
		},
		Action: withApp(func(c *cli.Context, a *app) error {
			var writers []export.SheetWriter
			if path := c.String("xlsx"); path != "" {
				writers = append(writers, export.NewXLSXWriter(path))
			}
			if c.Bool("sheets") {
				if a.cfg.GoogleSheetsID == "" || a.cfg.GoogleCredentials == "" {
					return cli.Exit("GOOGLE_SHEETS_ID and GOOGLE_CREDENTIALS_JSON are required for --sheets", 2)
				}
				w, err := export.NewSheetsWriter(c.Context, a.cfg.GoogleSheetsID, a.cfg.GoogleCredentials)
				if err != nil {
					return err
				}
				writers = append(writers, w)
			}
			if len(writers) == 0 {
				return cli.Exit("nothing to do: pass --xlsx and/or --sheets", 2)
			}

			date, err := dateArg(c)
			if err != nil {
				return err
			}
			alloc, err := a.allocation.Allocation(c.Context, date)
			if err != nil {
				return err
			}
			return export.NewService(writers...).Export(c.Context, alloc, allocation.Suggest(alloc, nil))
		}),
	}
}
