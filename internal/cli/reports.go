package cli

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Luc4sfdez/Ianae-sub001/internal/source"
)

// NewReportsCmd создаёт группу команд для отчётов воркеров.
func NewReportsCmd(clientFn func() *source.Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "reports",
		Aliases: []string{"report"},
		Short:   "Read worker reports",
	}

	cmd.AddCommand(newReportsListCmd(clientFn, outputFn))

	return cmd
}

func newReportsListCmd(clientFn func() *source.Client, outputFn func() *Output) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list WORKER",
		Short: "List reports of a worker, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reports, err := clientFn().ListReports(cmd.Context(), args[0], limit)
			if err != nil {
				return err
			}

			headers := []string{"ID", "TITLE", "TAGS", "CREATED"}
			rows := make([][]string, len(reports))
			for i, r := range reports {
				rows[i] = []string{
					strconv.FormatInt(r.ID, 10),
					truncate(r.Title, 70),
					strings.Join(r.Tags, ","),
					formatTime(r.CreatedAt),
				}
			}

			outputFn().Print(headers, rows, reports)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of results")

	return cmd
}
