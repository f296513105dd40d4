package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/bhv-platform/bhv-go/internal/rbac"
)

type roleDocument struct {
	Role        rbac.Role         `yaml:"role"`
	BHV         bool              `yaml:"bhv"`
	Permissions []rbac.Permission `yaml:"permissions"`
}

func rolesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "roles [role]",
		Short: "Print the role permission table as YAML",
		Args:  cobra.MaximumNArgs(1),
		// The table is static; no config or database is needed.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			roles := rbac.Roles()
			if len(args) == 1 {
				role, ok := rbac.ParseRole(args[0])
				if !ok {
					return fmt.Errorf("unknown role %q", args[0])
				}
				roles = []rbac.Role{role}
			}

			docs := make([]roleDocument, 0, len(roles))
			for _, r := range roles {
				docs = append(docs, roleDocument{Role: r, BHV: r.IsBHV(), Permissions: rbac.GetPermissions(r)})
			}

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(docs)
		},
	}
}
