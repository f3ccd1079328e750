package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/Dogebooch/doughub/internal/card"
)

type StatusFlag card.ActivationStatus

// Set implements pflag.Value.
func (s *StatusFlag) Set(v string) error {
	status := card.ActivationStatus(v)
	if !status.IsValid() {
		return fmt.Errorf("unknown activation status %q", v)
	}
	*s = StatusFlag(status)
	return nil
}

// String implements pflag.Value.
func (s *StatusFlag) String() string {
	if s == nil {
		return ""
	}
	return string(*s)
}

// Type implements pflag.Value.
func (s *StatusFlag) Type() string {
	return "StatusFlag"
}

var (
	_ pflag.Value = (*StatusFlag)(nil)
)

func newCardsCommand() *cobra.Command {
	cardsCmd := &cobra.Command{
		Use:   "cards",
		Short: "Inspect and manage the card collection",
	}

	cardsCmd.AddCommand(
		newCardsListCommand(),
		newCardsActivateCommand(),
		newCardsSuspendCommand(),
		newCardsLeechesCommand(),
	)
	return cardsCmd
}

func newCardsListCommand() *cobra.Command {
	status := StatusFlag(card.StatusActive)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cards by activation status",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := openDatabase(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			cardRepo := card.NewDBRepository(db)
			cards, err := cardRepo.FindByActivationStatus(ctx, card.ActivationStatus(status))
			if err != nil {
				return err
			}
			if len(cards) == 0 {
				fmt.Println("No cards.")
				return nil
			}

			for _, c := range cards {
				fmt.Printf("%-36s %-10s %-8s due %-10s lapses %-2d  %s\n",
					c.ID, c.ReviewState, c.Maturity, formatDate(c.DueDate), c.Lapses, c.Front)
			}
			return nil
		},
	}
	cmd.Flags().Var(&status, "status", "active, dormant or suspended")
	return cmd
}

func newCardsActivateCommand() *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "activate [card-id...]",
		Short: "Activate dormant or suspended cards",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := openDatabase(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			lifecycle := card.NewLifecycleManager(db, card.NewDBRepository(db))
			var reasons []string
			if reason != "" {
				reasons = []string{reason}
			}
			if err := lifecycle.BulkActivate(ctx, args, card.TierUserManual, reasons); err != nil {
				return err
			}
			fmt.Printf("activated %d cards\n", len(args))
			return nil
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "", "why these cards are being activated")
	return cmd
}

func newCardsSuspendCommand() *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "suspend [card-id...]",
		Short: "Suspend cards, removing them from the review queue",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := openDatabase(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			lifecycle := card.NewLifecycleManager(db, card.NewDBRepository(db))
			if err := lifecycle.BulkSuspend(ctx, args, reason); err != nil {
				return err
			}
			fmt.Printf("suspended %d cards\n", len(args))
			return nil
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "manual", "why these cards are being suspended")
	return cmd
}

func newCardsLeechesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "leeches",
		Short: "List active cards that look like leeches",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := openDatabase(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			cardRepo := card.NewDBRepository(db)
			cards, err := cardRepo.FindByActivationStatus(ctx, card.StatusActive)
			if err != nil {
				return err
			}

			found := 0
			for _, c := range cards {
				if !c.AtRiskForDisplay() {
					continue
				}
				found++
				color.New(color.FgRed).Printf("%-36s lapses %-2d reps %-2d  %s\n", c.ID, c.Lapses, c.Reps, c.Front)
			}
			if found == 0 {
				fmt.Println("No struggling cards.")
			}
			return nil
		},
	}
}
