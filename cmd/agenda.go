package cmd

import (
	"fmt"
	"time"

	"daybook/internal/core"
	"daybook/internal/logging"
	"daybook/internal/recur"
	"daybook/internal/task"

	"github.com/spf13/cobra"
)

var agendaCmd = &cobra.Command{
	Use:   "agenda",
	Short: "Print today's due and overdue tasks and exit",
	Long:  `Print today's due and overdue tasks in a simple text format and exit.`,
	RunE:  runAgenda,
}

func init() {
	rootCmd.AddCommand(agendaCmd)
}

func runAgenda(cmd *cobra.Command, args []string) error {
	log, closer := logging.Open("")
	defer closer.Close()

	// No budget cap so the whole collection merges in one pass.
	cfg.PollBudget = 0
	c := core.New(cfg, log)
	c.Tick()

	today := recur.Date(time.Now())
	fmt.Printf("Agenda for %s:\n", today.Format("Mon Jan 2, 2006"))

	printed := 0
	for _, rec := range c.CurrentTaskList() {
		urgency := rec.Urgency(today, cfg.UpcomingWindowDays)
		if urgency != recur.UrgencyOverdue && urgency != recur.UrgencyDueToday {
			continue
		}
		printed++

		marker := " "
		if urgency == recur.UrgencyOverdue {
			marker = "!"
		}
		line := fmt.Sprintf("  %s %s", marker, rec.Title)
		if rec.Priority == task.PriorityHigh {
			line += " (high)"
		}
		if due := rec.EffectiveDue(); !due.IsZero() && !due.Equal(today) {
			line += fmt.Sprintf(" (due %s)", due.Format("Jan 2"))
		}
		fmt.Println(line)
	}
	if printed == 0 {
		fmt.Println("Nothing due today.")
	}
	return nil
}
