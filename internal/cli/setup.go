package cli

import (
	"context"
	"fmt"

	"github.com/AI2HU/taskcollab-setup/internal/logger"
	"github.com/AI2HU/taskcollab-setup/internal/provision"
)

const rule = "=================================================="

func runSetup(ctx context.Context, s *session) error {
	out := s.out

	fmt.Fprintln(out)
	fmt.Fprintln(out, FormatHeader(rule))
	fmt.Fprintln(out, FormatHeader("  Task Collaboration Platform"))
	fmt.Fprintln(out, FormatHeader("  Database Auto-Setup"))
	fmt.Fprintln(out, FormatHeader(rule))

	printSummary(s)

	outcome, err := s.newProvisioner().Provision(ctx)
	if err != nil {
		return err
	}
	logger.Info("provisioning finished: %s", outcome)

	switch outcome {
	case provision.OutcomeKept:
		fmt.Fprintf(out, "\n%s\n", FormatSuccess("🎉 Setup complete! Run: npm run prisma:migrate"))
	default:
		fmt.Fprintf(out, "\n%s\n", FormatSuccess("🎉 Database setup complete!"))
		fmt.Fprintln(out, "\n📝 Next steps:")
		fmt.Fprintln(out, "   1. Run: npm run prisma:migrate")
		fmt.Fprintln(out, "   2. Run: npm run dev")
		fmt.Fprintln(out)
	}
	return nil
}

func printSummary(s *session) {
	out := s.out
	fmt.Fprintf(out, "\n🔧 Task Collaboration Platform - Database Setup\n")
	fmt.Fprintln(out, rule)
	if s.dialect.Name() == "sqlite" {
		fmt.Fprintln(out, FormatLabelValue("Directory:", s.cfg.DataDir))
	} else {
		fmt.Fprintln(out, FormatLabelValue("Host:", s.cfg.Address()))
		fmt.Fprintln(out, FormatLabelValue("User:", s.cfg.User))
	}
	fmt.Fprintln(out, FormatLabelValue("Database:", s.cfg.Database))
	fmt.Fprintln(out, FormatLabelValue("Driver:", s.dialect.Name()))
	fmt.Fprintln(out, rule)
}
