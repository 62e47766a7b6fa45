package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/zulandar/crewcall/internal/config"
	"github.com/zulandar/crewcall/internal/db"
	"github.com/zulandar/crewcall/internal/models"
)

// shiftTimeLayout is the CLI input format for shift times.
const shiftTimeLayout = "2006-01-02 15:04"

func newShiftCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shift",
		Short: "Manage schedule shifts",
	}

	cmd.AddCommand(newShiftAddCmd())
	cmd.AddCommand(newShiftListCmd())
	return cmd
}

func newShiftAddCmd() *cobra.Command {
	var configPath, start, end, location, note string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a shift to the schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShiftAdd(cmd, configPath, start, end, location, note)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "crewcall.yaml", "path to Crewcall config file")
	cmd.Flags().StringVar(&start, "start", "", `start time ("2006-01-02 15:04")`)
	cmd.Flags().StringVar(&end, "end", "", `end time ("2006-01-02 15:04")`)
	cmd.Flags().StringVar(&location, "location", "", "shift location")
	cmd.Flags().StringVar(&note, "note", "", "optional note")
	cmd.MarkFlagRequired("start")
	cmd.MarkFlagRequired("end")
	cmd.MarkFlagRequired("location")
	return cmd
}

func runShiftAdd(cmd *cobra.Command, configPath, start, end, location, note string) error {
	startsAt, err := time.ParseInLocation(shiftTimeLayout, start, time.Local)
	if err != nil {
		return fmt.Errorf("parse --start: %w", err)
	}
	endsAt, err := time.ParseInLocation(shiftTimeLayout, end, time.Local)
	if err != nil {
		return fmt.Errorf("parse --end: %w", err)
	}
	if !endsAt.After(startsAt) {
		return fmt.Errorf("shift: end must be after start")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	gormDB, err := db.Connect(cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}

	shift := models.Shift{
		StartsAt: startsAt,
		EndsAt:   endsAt,
		Location: location,
		Status:   "scheduled",
		Note:     note,
	}
	if err := gormDB.Create(&shift).Error; err != nil {
		return fmt.Errorf("create shift: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Added shift %d: %s %s–%s\n",
		shift.ID, location, startsAt.Format(shiftTimeLayout), endsAt.Format("15:04"))
	return nil
}

func newShiftListCmd() *cobra.Command {
	var configPath string
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List shifts on the schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShiftList(cmd, configPath, all)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "crewcall.yaml", "path to Crewcall config file")
	cmd.Flags().BoolVar(&all, "all", false, "include past shifts")
	return cmd
}

func runShiftList(cmd *cobra.Command, configPath string, all bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	gormDB, err := db.Connect(cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}

	q := gormDB.Order("starts_at ASC")
	if !all {
		q = q.Where("ends_at >= ?", time.Now())
	}
	var shifts []models.Shift
	if err := q.Find(&shifts).Error; err != nil {
		return fmt.Errorf("list shifts: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(shifts) == 0 {
		fmt.Fprintln(out, "No shifts found.")
		return nil
	}
	fmt.Fprintf(out, "%-4s %-17s %-7s %-12s %-10s %s\n", "ID", "START", "END", "LOCATION", "STATUS", "NOTE")
	for _, s := range shifts {
		fmt.Fprintf(out, "%-4d %-17s %-7s %-12s %-10s %s\n",
			s.ID,
			s.StartsAt.Format("Mon Jan 2 15:04"),
			s.EndsAt.Format("15:04"),
			s.Location,
			s.Status,
			s.Note)
	}
	return nil
}
