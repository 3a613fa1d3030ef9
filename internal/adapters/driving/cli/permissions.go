package cli

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/youngmin9/vitalsync/internal/core/domain"
)

var permissionsWrite string

var permissionsCmd = &cobra.Command{
	Use:   "permissions [resource...]",
	Short: "Request access to health data",
	Long: `Requests read access to the given resources, or to every supported
resource when none are given. Use --write to also request write access,
e.g. --write nutrition.water,nutrition.caffeine.

When background delivery is enabled, change notifications are installed
for every permitted resource.`,
	RunE: runPermissions,
}

func init() {
	permissionsCmd.Flags().StringVar(&permissionsWrite, "write", "", "comma-separated writable resources")
	rootCmd.AddCommand(permissionsCmd)
}

func runPermissions(cmd *cobra.Command, args []string) error {
	if err := requireClient(); err != nil {
		return err
	}

	read, err := parseResources(args)
	if err != nil {
		return err
	}
	if len(read) == 0 {
		read = domain.AllResources()
	}

	var write []domain.WritableResource
	for _, name := range splitList(permissionsWrite) {
		w, err := domain.ParseWritableResource(name)
		if err != nil {
			return err
		}
		write = append(write, w)
	}

	outcome := client.RequestPermissions(cmd.Context(), read, write)
	switch outcome.Kind {
	case domain.PermissionSuccess:
		cmd.Printf("Granted read access to %d resources", len(read))
		if len(write) > 0 {
			cmd.Printf(" and write access to %d", len(write))
		}
		cmd.Println(".")
		return nil
	case domain.PermissionPlatformUnavailable:
		return errors.New("health store is not available on this device")
	default:
		return errors.New("permission request failed: " + outcome.Reason)
	}
}

func parseResources(names []string) ([]domain.Resource, error) {
	out := make([]domain.Resource, 0, len(names))
	for _, name := range names {
		r, err := domain.ParseResource(name)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
