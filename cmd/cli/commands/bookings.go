package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tolkbridge/dispatch/internal/db/models"
	"github.com/tolkbridge/dispatch/internal/types"
)

// bookingOutput represents the filtered output for a booking
type bookingOutput struct {
	ID           uint   `json:"id"`
	Status       string `json:"status"`
	LanguageFrom string `json:"language_from"`
	LanguageTo   string `json:"language_to"`
	DueAt        string `json:"due_at,omitempty"`
}

func init() {
	bookingsCmd.AddCommand(listBookingsCmd)
	bookingsCmd.AddCommand(getBookingCmd)
	bookingsCmd.AddCommand(createBookingCmd)
	bookingsCmd.AddCommand(potentialBookingsCmd)
	bookingsCmd.AddCommand(actionCmd("offer", "Offer a booking to eligible translators"))
	bookingsCmd.AddCommand(actionCmd("accept", "Accept a booking as the acting translator"))
	bookingsCmd.AddCommand(actionCmd("start", "Start the session for an accepted booking"))
	bookingsCmd.AddCommand(actionCmd("cancel", "Cancel a booking"))
	bookingsCmd.AddCommand(actionCmd("end", "Complete a booking"))
	bookingsCmd.AddCommand(actionCmd("reopen", "Reopen a cancelled or no-show booking"))

	listBookingsCmd.Flags().IntP("limit", "l", models.DefaultLimit, "Limit the number of bookings returned")
	listBookingsCmd.Flags().IntP("offset", "o", 0, "Offset into the result set")

	createBookingCmd.Flags().String("from", "", "Source language")
	createBookingCmd.Flags().String("to", "", "Target language")
	createBookingCmd.Flags().Bool("certified", false, "Require a certified translator")
	createBookingCmd.Flags().Bool("immediate", false, "Offer the booking immediately")
	createBookingCmd.Flags().String("due", "", "Due time (RFC3339) for scheduled bookings")
	_ = createBookingCmd.MarkFlagRequired("from")
	_ = createBookingCmd.MarkFlagRequired("to")
}

var bookingsCmd = &cobra.Command{
	Use:   "bookings",
	Short: "Manage bookings",
}

var listBookingsCmd = &cobra.Command{
	Use:   "list",
	Short: "List the acting user's bookings",
	RunE: func(cmd *cobra.Command, _ []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")

		jobs, err := apiClient.ListBookings(context.Background(), &models.ListOptions{Limit: limit, Offset: offset})
		if err != nil {
			return fmt.Errorf("error fetching bookings: %w", err)
		}
		return printBookings(jobs)
	},
}

var potentialBookingsCmd = &cobra.Command{
	Use:   "potential",
	Short: "List offered bookings the acting translator is eligible for",
	RunE: func(_ *cobra.Command, _ []string) error {
		jobs, err := apiClient.GetPotentialBookings(context.Background(), &models.ListOptions{Limit: models.DefaultLimit})
		if err != nil {
			return fmt.Errorf("error fetching potential bookings: %w", err)
		}
		return printBookings(jobs)
	},
}

var getBookingCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Get a specific booking",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		id, err := parseBookingID(args[0])
		if err != nil {
			return err
		}

		job, err := apiClient.GetBooking(context.Background(), id)
		if err != nil {
			return fmt.Errorf("error fetching booking: %w", err)
		}
		return printJSON(job)
	},
}

var createBookingCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new booking",
	RunE: func(cmd *cobra.Command, _ []string) error {
		from, _ := cmd.Flags().GetString("from")
		to, _ := cmd.Flags().GetString("to")
		certified, _ := cmd.Flags().GetBool("certified")
		immediate, _ := cmd.Flags().GetBool("immediate")
		dueStr, _ := cmd.Flags().GetString("due")

		req := &types.CreateJobRequest{
			LanguageFrom:      from,
			LanguageTo:        to,
			CertifiedRequired: certified,
			Immediate:         immediate,
		}
		if dueStr != "" {
			due, err := time.Parse(time.RFC3339, dueStr)
			if err != nil {
				return fmt.Errorf("invalid due time: %w", err)
			}
			req.DueAt = due
		}

		result, err := apiClient.CreateBooking(context.Background(), req)
		if err != nil {
			return fmt.Errorf("error creating booking: %w", err)
		}
		return printJSON(result)
	},
}

// actionCmd builds a single-id transition command; all of them share
// the same shape
func actionCmd(action, short string) *cobra.Command {
	return &cobra.Command{
		Use:   action + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			id, err := parseBookingID(args[0])
			if err != nil {
				return err
			}

			ctx := context.Background()
			var job interface{}
			switch action {
			case "offer":
				job, err = apiClient.OfferBooking(ctx, id)
			case "accept":
				job, err = apiClient.AcceptBooking(ctx, id)
			case "start":
				job, err = apiClient.StartBooking(ctx, id)
			case "cancel":
				job, err = apiClient.CancelBooking(ctx, id)
			case "end":
				job, err = apiClient.EndBooking(ctx, id)
			case "reopen":
				job, err = apiClient.ReopenBooking(ctx, id)
			}
			if err != nil {
				return fmt.Errorf("error running %s: %w", action, err)
			}
			return printJSON(job)
		},
	}
}

func parseBookingID(arg string) (uint, error) {
	var id uint
	if _, err := fmt.Sscanf(arg, "%d", &id); err != nil || id == 0 {
		return 0, fmt.Errorf("invalid booking id: %s", arg)
	}
	return id, nil
}

func printBookings(jobs []models.Job) error {
	out := make([]bookingOutput, len(jobs))
	for i, job := range jobs {
		out[i] = bookingOutput{
			ID:           job.ID,
			Status:       job.Status.String(),
			LanguageFrom: job.LanguageFrom,
			LanguageTo:   job.LanguageTo,
		}
		if !job.DueAt.IsZero() {
			out[i].DueAt = job.DueAt.Format(time.RFC3339)
		}
	}
	return printJSON(out)
}

func printJSON(v interface{}) error {
	prettyJSON, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("error formatting response: %w", err)
	}
	fmt.Println(string(prettyJSON))
	return nil
}
