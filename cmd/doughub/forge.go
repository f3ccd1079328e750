package main

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Dogebooch/doughub/internal/card"
	"github.com/Dogebooch/doughub/internal/forge"
)

func newForgeCommand() *cobra.Command {
	forgeCmd := &cobra.Command{
		Use:   "forge",
		Short: "Turn knowledge records into flashcards",
	}

	forgeCmd.AddCommand(
		newForgeImportCommand(),
		newForgePreviewCommand(),
		newForgeRunCommand(),
	)
	return forgeCmd
}

func newForgeImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import [file]",
		Short: "Import knowledge records from a YAML file",
		Args:  cobra.ExactArgs(1),
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

			contents, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read records file: %w", err)
			}
			var records []forge.KnowledgeRecord
			if err := yaml.Unmarshal(contents, &records); err != nil {
				return fmt.Errorf("parse records file: %w", err)
			}

			recordRepo := forge.NewDBRecordRepository(db)
			for i := range records {
				record := &records[i]
				if !record.Archetype.IsValid() {
					return fmt.Errorf("record %q: unknown archetype %q", record.Title, record.Archetype)
				}
				if record.ID == "" {
					record.ID = uuid.NewString()
				}
				if err := recordRepo.Create(ctx, record); err != nil {
					return fmt.Errorf("create record %q: %w", record.Title, err)
				}
				fmt.Printf("imported %s (%s) as %s\n", record.Title, record.Archetype, record.ID)
			}
			return nil
		},
	}
}

func newForgePreviewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "preview [record-id]",
		Short: "Show how many cards a record would produce",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			svc, db, err := buildForgeService()
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			count, err := svc.Preview(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Printf("golden ticket cards: %d\n", count.GoldenTicket)
			fmt.Printf("practice bank cards: %d\n", count.PracticeBank)
			return nil
		},
	}
}

func newForgeRunCommand() *cobra.Command {
	var blockID string

	cmd := &cobra.Command{
		Use:   "run [record-id]",
		Short: "Generate the record's cards and activate its golden ticket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			svc, db, err := buildForgeService()
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			cards, err := svc.Forge(ctx, args[0], blockID)
			if err != nil {
				return err
			}

			for _, c := range cards {
				marker := " "
				if c.IsGoldenTicket {
					marker = color.New(color.FgYellow).Sprint("*")
				}
				fmt.Printf("%s %-20s %-10s %s\n", marker, c.CardType, c.Status, c.Front)
			}
			fmt.Printf("\n%d cards created at %s\n", len(cards), time.Now().Format(time.DateTime))
			return nil
		},
	}
	cmd.Flags().StringVar(&blockID, "block", "", "source content block ID")
	return cmd
}

func buildForgeService() (*forge.Service, *sqlx.DB, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	db, err := openDatabase(cfg)
	if err != nil {
		return nil, nil, err
	}

	recordRepo := forge.NewDBRecordRepository(db)
	cardRepo := card.NewDBRepository(db)
	svc := forge.NewService(db, forge.NewGenerator(), recordRepo, cardRepo)
	return svc, db, nil
}
