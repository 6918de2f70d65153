package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/UziB26/leagueladder-sub002/app"
	"github.com/UziB26/leagueladder-sub002/app/httpapi"
	ledgerservice "github.com/UziB26/leagueladder-sub002/app/modules/ledger/application"
	ledgerdomain "github.com/UziB26/leagueladder-sub002/app/modules/ledger/domain"
	"github.com/UziB26/leagueladder-sub002/app/shared/actor"
	"github.com/google/uuid"
	"github.com/urfave/cli/v2"
)

var (
	adminFlag  = &cli.StringFlag{Name: "admin", Usage: "acting admin player id", Required: true}
	leagueFlag = &cli.StringFlag{Name: "league", Usage: "league id", Required: true}
	playerFlag = &cli.StringFlag{Name: "player", Usage: "player id", Required: true}
	matchFlag  = &cli.StringFlag{Name: "match", Usage: "match id", Required: true}
	reasonFlag = &cli.StringFlag{Name: "reason", Usage: "audit reason"}
)

func uuidFlag(c *cli.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.String(name))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid --%s: %w", name, err)
	}
	return id, nil
}

func adminActor(c *cli.Context) (actor.Actor, error) {
	id, err := uuidFlag(c, "admin")
	if err != nil {
		return actor.Actor{}, err
	}
	return actor.Admin(id), nil
}

// withApp builds the application for a one-shot command and closes it after fn.
func withApp(c *cli.Context, fn func(a *app.App) error) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	a, err := app.NewApp(c.Context, cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func optionalInt(c *cli.Context, name string) *int {
	if !c.IsSet(name) {
		return nil
	}
	v := c.Int(name)
	return &v
}

func adminCommand() *cli.Command {
	return &cli.Command{
		Name:  "admin",
		Usage: "administrative operations",
		Subcommands: []*cli.Command{
			{
				Name:  "set-rating",
				Usage: "override a player's rating",
				Flags: []cli.Flag{adminFlag, leagueFlag, playerFlag, reasonFlag,
					&cli.IntFlag{Name: "rating", Required: true},
				},
				Action: func(c *cli.Context) error {
					admin, err := adminActor(c)
					if err != nil {
						return err
					}
					leagueID, err := uuidFlag(c, "league")
					if err != nil {
						return err
					}
					playerID, err := uuidFlag(c, "player")
					if err != nil {
						return err
					}
					return withApp(c, func(a *app.App) error {
						adj, err := a.LedgerModule.LedgerService.SetRating(c.Context, admin, ledgerservice.SetRatingRequest{
							PlayerID: playerID,
							LeagueID: leagueID,
							Rating:   c.Int("rating"),
							Reason:   c.String("reason"),
						})
						if err != nil {
							return err
						}
						return printJSON(adj)
					})
				},
			},
			{
				Name:  "set-stats",
				Usage: "correct a player's win/loss record",
				Flags: []cli.Flag{adminFlag, leagueFlag, playerFlag, reasonFlag,
					&cli.IntFlag{Name: "wins"},
					&cli.IntFlag{Name: "losses"},
					&cli.IntFlag{Name: "draws"},
					&cli.IntFlag{Name: "games-played"},
					&cli.BoolFlag{Name: "allow-divergence", Usage: "accept games played differing from wins + losses + draws"},
				},
				Action: func(c *cli.Context) error {
					admin, err := adminActor(c)
					if err != nil {
						return err
					}
					leagueID, err := uuidFlag(c, "league")
					if err != nil {
						return err
					}
					playerID, err := uuidFlag(c, "player")
					if err != nil {
						return err
					}
					return withApp(c, func(a *app.App) error {
						adj, err := a.LedgerModule.LedgerService.SetStats(c.Context, admin, ledgerservice.SetStatsRequest{
							PlayerID: playerID,
							LeagueID: leagueID,
							Patch: ledgerdomain.StatsPatch{
								Wins:        optionalInt(c, "wins"),
								Losses:      optionalInt(c, "losses"),
								Draws:       optionalInt(c, "draws"),
								GamesPlayed: optionalInt(c, "games-played"),
							},
							AllowDivergence: c.Bool("allow-divergence"),
							Reason:          c.String("reason"),
						})
						if err != nil {
							return err
						}
						return printJSON(adj)
					})
				},
			},
			{
				Name:  "void",
				Usage: "void a completed match and revert its rating changes",
				Flags: []cli.Flag{adminFlag, matchFlag, reasonFlag},
				Action: func(c *cli.Context) error {
					admin, err := adminActor(c)
					if err != nil {
						return err
					}
					matchID, err := uuidFlag(c, "match")
					if err != nil {
						return err
					}
					return withApp(c, func(a *app.App) error {
						t, err := a.MatchModule.MatchService.Void(c.Context, admin, matchID, c.String("reason"))
						if err != nil {
							return err
						}
						return printJSON(t.Match)
					})
				},
			},
			{
				Name:  "unvoid",
				Usage: "re-apply a voided match against current ratings",
				Flags: []cli.Flag{adminFlag, matchFlag, reasonFlag},
				Action: func(c *cli.Context) error {
					admin, err := adminActor(c)
					if err != nil {
						return err
					}
					matchID, err := uuidFlag(c, "match")
					if err != nil {
						return err
					}
					return withApp(c, func(a *app.App) error {
						t, err := a.MatchModule.MatchService.Unvoid(c.Context, admin, matchID, c.String("reason"))
						if err != nil {
							return err
						}
						return printJSON(t.Match)
					})
				},
			},
			{
				Name:  "audit",
				Usage: "list ratings whose games played differs from wins + losses + draws",
				Action: func(c *cli.Context) error {
					return withApp(c, func(a *app.App) error {
						restored, err := a.Coordinator.SweepStale(c.Context, a.Config.Queue.StaleAge)
						if err != nil {
							fmt.Fprintf(os.Stderr, "some stale backups could not be restored: %v\n", err)
						}
						if restored > 0 {
							fmt.Printf("Restored %d stale backups\n", restored)
						}

						rows, err := a.LedgerModule.LedgerService.AuditRecords(c.Context)
						if err != nil {
							return err
						}
						if len(rows) == 0 {
							fmt.Println("All records consistent")
							return nil
						}
						return printJSON(rows)
					})
				},
			},
			{
				Name:  "token",
				Usage: "issue a bearer token for a player",
				Flags: []cli.Flag{playerFlag,
					&cli.BoolFlag{Name: "admin", Usage: "grant admin rights"},
					&cli.DurationFlag{Name: "ttl", Value: 24 * time.Hour},
				},
				Action: func(c *cli.Context) error {
					cfg, err := loadConfig(c)
					if err != nil {
						return err
					}
					if cfg.JWT.Secret == "" {
						return fmt.Errorf("no JWT secret configured")
					}
					playerID, err := uuidFlag(c, "player")
					if err != nil {
						return err
					}
					token, err := httpapi.NewTokens(cfg.JWT.Secret).Issue(actor.Actor{PlayerID: playerID, IsAdmin: c.Bool("admin")}, c.Duration("ttl"))
					if err != nil {
						return err
					}
					fmt.Println(token)
					return nil
				},
			},
		},
	}
}

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "write a league's standings and ledger to an xlsx workbook",
		Flags: []cli.Flag{leagueFlag,
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "output file", Required: true},
		},
		Action: func(c *cli.Context) error {
			leagueID, err := uuidFlag(c, "league")
			if err != nil {
				return err
			}
			return withApp(c, func(a *app.App) error {
				f, err := os.Create(c.String("out"))
				if err != nil {
					return err
				}
				if err := a.LedgerModule.LedgerService.ExportLeague(c.Context, leagueID, f); err != nil {
					_ = f.Close()
					return err
				}
				return f.Close()
			})
		},
	}
}
