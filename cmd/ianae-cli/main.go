// Ianae CLI — операторский инструмент для источника заказов.
//
// Использование:
//
//	ianae [--api-url URL] [--json] <command> <subcommand> [flags]
//
// Команды:
//
//	orders   Заказы воркеров (list, show, create, status)
//	reports  Отчёты воркеров
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Luc4sfdez/Ianae-sub001/internal/cli"
	"github.com/Luc4sfdez/Ianae-sub001/internal/source"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	var apiURL string
	var jsonOutput bool

	defaultURL := "http://localhost:8080"
	if v := os.Getenv("IANAE_SOURCE_URL"); v != "" {
		defaultURL = v
	}

	rootCmd := &cobra.Command{
		Use:           "ianae",
		Short:         "Ianae CLI — worker orders and reports",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", defaultURL, "Order source API URL")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	clientFn := func() *source.Client { return source.NewClient(apiURL) }
	outputFn := func() *cli.Output { return cli.NewOutput(jsonOutput) }

	rootCmd.AddCommand(
		cli.NewOrdersCmd(clientFn, outputFn),
		cli.NewReportsCmd(clientFn, outputFn),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
