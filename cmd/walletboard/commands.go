package main

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/samber/lo"
	"github.com/urfave/cli/v2"

	"github.com/mtlprog/walletboard/internal/config"
	"github.com/mtlprog/walletboard/internal/domain"
	"github.com/mtlprog/walletboard/internal/export"
	"github.com/mtlprog/walletboard/internal/tokens"
)

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "fetch the displayed wallet once and write its token list to a spreadsheet",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "write an .xlsx workbook to `FILE`",
			},
			&cli.StringFlag{
				Name:    "spreadsheet-id",
				Usage:   "write to a Google spreadsheet instead",
				EnvVars: []string{"SPREADSHEET_ID"},
			},
			&cli.StringFlag{
				Name:  "credentials",
				Usage: "service account JSON `FILE` (defaults to GOOGLE_CREDENTIALS_JSON)",
			},
			&cli.StringFlag{
				Name:  "wallet",
				Usage: "wallet address (defaults to the first of WALLETS)",
			},
		},
		Action: runExport,
	}
}

func runExport(c *cli.Context) error {
	ctx := c.Context
	cfg := config.Load()
	setupLogger(cfg)

	writer, err := exportWriter(c, cfg)
	if err != nil {
		return err
	}

	wallet := c.String("wallet")
	if wallet == "" {
		wallet = cfg.ActiveWallet()
	}
	if wallet == "" {
		return errors.New("no wallet: pass --wallet or set WALLETS")
	}

	svc, err := open(ctx, cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	tokenFeed, err := svc.newFeed(nil)
	if err != nil {
		return err
	}
	vms, err := tokenFeed.Fetch(ctx, wallet)
	if err != nil {
		return fmt.Errorf("fetching %s: %w", wallet, err)
	}
	hidden, err := svc.hidden.Hidden(ctx, wallet)
	if err != nil {
		return fmt.Errorf("loading hidden tokens: %w", err)
	}

	model := tokens.NewModel(svc.catalog, svc.currency)
	model.SetHiddenSet(hidden)
	model.SetTokens(vms)
	snap := model.Snapshot()

	if err := export.NewService(writer).Export(ctx, snap); err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, exportSummary(model, vms, snap))
	return nil
}

func exportSummary(model *tokens.Model, vms []domain.TokenViewModel, snap tokens.Snapshot) string {
	hidden := lo.CountBy(vms, func(vm domain.TokenViewModel) bool { return model.IsHidden(vm.Token.ID) })
	line := fmt.Sprintf("exported %d tokens, total %s", len(snap.Tokens()), snap.Summary.TotalAmountString())
	if hidden > 0 {
		line += fmt.Sprintf(" (%d hidden)", hidden)
	}
	return line
}

func exportWriter(c *cli.Context, cfg config.Config) (export.SheetWriter, error) {
	if out := c.String("out"); out != "" {
		return export.NewXLSXWriter(out), nil
	}
	id := c.String("spreadsheet-id")
	if id == "" {
		return nil, errors.New("pass --out or --spreadsheet-id")
	}
	creds := cfg.GoogleCredentials
	if path := c.String("credentials"); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading credentials: %w", err)
		}
		creds = string(b)
	}
	if creds == "" {
		return nil, errors.New("google credentials are required for sheet export")
	}
	return export.NewSheetsWriter(c.Context, id, creds)
}

func serversCommand() *cli.Command {
	return &cli.Command{
		Name:  "servers",
		Usage: "list built-in and custom RPC servers",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "custom", Usage: "only custom servers"},
		},
		Action: func(c *cli.Context) error {
			cfg := config.Load()
			setupLogger(cfg)

			svc, err := open(c.Context, cfg)
			if err != nil {
				return err
			}
			defer svc.Close()

			tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "CHAIN ID\tNAME\tSYMBOL\tRPC\tTESTNET\tCUSTOM")
			for _, m := range svc.catalog.All() {
				if c.Bool("custom") && !m.IsCustom {
					continue
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%t\t%t\n", m.ChainID, m.Name, m.Symbol, m.RPCURL, m.IsTestnet, m.IsCustom)
			}
			return tw.Flush()
		},
	}
}
