package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Luc4sfdez/Ianae-sub001/internal/domain"
	"github.com/Luc4sfdez/Ianae-sub001/internal/source"
)

var orderHeaders = []string{"ID", "STATUS", "PRIORITY", "TITLE", "CREATED"}

func orderRow(o domain.Order) []string {
	return []string{
		strconv.FormatInt(o.ID, 10),
		string(o.WorkflowStatus),
		strconv.Itoa(o.Priority),
		truncate(o.Title, 60),
		formatTime(o.CreatedAt),
	}
}

// NewOrdersCmd создаёт группу команд для управления заказами.
func NewOrdersCmd(clientFn func() *source.Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "orders",
		Aliases: []string{"order"},
		Short:   "Manage worker orders",
	}

	cmd.AddCommand(
		newOrdersListCmd(clientFn, outputFn),
		newOrdersShowCmd(clientFn, outputFn),
		newOrdersCreateCmd(clientFn, outputFn),
		newOrdersStatusCmd(clientFn, outputFn),
	)

	return cmd
}

func newOrdersListCmd(clientFn func() *source.Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "list WORKER",
		Short: "List pending orders of a worker in execution order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			orders, err := clientFn().ListPending(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			rows := make([][]string, len(orders))
			for i, o := range orders {
				rows[i] = orderRow(o)
			}

			outputFn().Print(orderHeaders, rows, orders)
			return nil
		},
	}
}

func newOrdersShowCmd(clientFn func() *source.Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show an order with its content",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseOrderID(args[0])
			if err != nil {
				return err
			}

			order, err := clientFn().GetOrder(cmd.Context(), id)
			if err != nil {
				return err
			}

			out := outputFn()
			out.Print(orderHeaders, [][]string{orderRow(*order)}, order)
			if order.StatusMessage != "" {
				out.Text("\nStatus message: " + order.StatusMessage)
			}
			if order.Content != "" {
				out.Text("\n" + order.Content)
			}
			return nil
		},
	}
}

func newOrdersCreateCmd(clientFn func() *source.Client, outputFn func() *Output) *cobra.Command {
	var title string
	var content string
	var file string
	var priority int

	cmd := &cobra.Command{
		Use:   "create WORKER",
		Short: "Create an order for a worker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if file != "" {
				data, err := os.ReadFile(file)
				if err != nil {
					return fmt.Errorf("read content file: %w", err)
				}
				content = string(data)
			}

			order, err := clientFn().CreateOrder(cmd.Context(), source.CreateOrderRequest{
				Title:    title,
				Content:  content,
				Worker:   args[0],
				Priority: priority,
			})
			if err != nil {
				return err
			}

			out := outputFn()
			out.Success(fmt.Sprintf("Order created: %d", order.ID))
			out.Print(orderHeaders, [][]string{orderRow(*order)}, order)
			return nil
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "Order title (required)")
	cmd.Flags().StringVarP(&content, "content", "c", "", "Instructions for the model")
	cmd.Flags().StringVarP(&file, "file", "f", "", "Read instructions from file")
	cmd.Flags().IntVar(&priority, "priority", 0, "Priority (higher runs first)")
	cmd.MarkFlagRequired("title")
	cmd.MarkFlagsMutuallyExclusive("content", "file")

	return cmd
}

func newOrdersStatusCmd(clientFn func() *source.Client, outputFn func() *Output) *cobra.Command {
	var message string

	cmd := &cobra.Command{
		Use:   "status ID STATUS",
		Short: "Set the workflow status of an order (pending, in_progress, completed, blocked, cancelled)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseOrderID(args[0])
			if err != nil {
				return err
			}

			status, err := domain.ParseWorkflowStatus(args[1])
			if err != nil {
				return err
			}

			err = clientFn().UpdateStatus(cmd.Context(), id, domain.StatusUpdate{
				WorkflowStatus: status,
				Worker:         "operator",
				Message:        message,
			})
			if err != nil {
				return err
			}

			outputFn().Success(fmt.Sprintf("Order %d is now %s", id, status))
			return nil
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "", "Reason for the change")

	return cmd
}

func parseOrderID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid order id %q", s)
	}
	return id, nil
}
