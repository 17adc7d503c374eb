package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/amv-gms/grievance-service/internal/domain"
	"github.com/amv-gms/grievance-service/internal/seed"
	"github.com/amv-gms/grievance-service/internal/service"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the SQL migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		pg, err := connectPostgres(cmd.Context(), true)
		if err != nil {
			return err
		}
		pg.Close()
		fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed <file.yaml>",
	Short: "Load employees, dropdown mappings and staff accounts from YAML",
	Long: `Replaces the employee and dropdown tables with the lists in the file
(sections that are absent are left alone) and creates staff accounts whose
usernames do not exist yet.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		file, err := seed.Load(args[0])
		if err != nil {
			return err
		}
		st, err := openStores(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer st.close()

		directoryCache, redis := newDirectoryCache()
		if redis != nil {
			defer redis.Close()
		}
		svc, err := newServices(st, directoryCache, nil)
		if err != nil {
			return err
		}
		res, err := seed.Apply(cmd.Context(), file, svc.directory, svc.staff, logger)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "employees: %d, dropdown items: %d, staff created: %d, staff skipped: %d\n",
			res.Employees, res.DropdownItems, res.StaffCreated, res.StaffSkipped)
		return nil
	},
}

var importEmployeesCmd = &cobra.Command{
	Use:   "import-employees <file.csv>",
	Short: "Replace the employee mapping with a CSV export",
	Long: `Reads a CSV export of the employee sheet. Columns are picked by the
HRMS_ID and EMPLOYEE_NAME headers; without a header the first two columns are
used. Use "-" to read from standard input.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in := cmd.InOrStdin()
		if args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			in = f
		}
		rows, err := seed.ReadEmployeesCSV(in)
		if err != nil {
			return err
		}

		st, err := openStores(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer st.close()

		directoryCache, redis := newDirectoryCache()
		if redis != nil {
			defer redis.Close()
		}
		svc, err := newServices(st, directoryCache, nil)
		if err != nil {
			return err
		}
		n, err := svc.directory.ImportEmployees(cmd.Context(), rows)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "imported %d of %d rows\n", n, len(rows))
		return nil
	},
}

var createStaff struct {
	name     string
	username string
	password string
	role     string
}

var createStaffCmd = &cobra.Command{
	Use:   "create-staff",
	Short: "Create an officer or admin account",
	Long: `Creates a staff account directly in the database. Use it to bootstrap the
first admin; later accounts can be created from the dashboard API.

The password can also be supplied through GMS_STAFF_PASSWORD.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		password := createStaff.password
		if password == "" {
			password = os.Getenv("GMS_STAFF_PASSWORD")
		}

		st, err := openStores(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer st.close()

		svc, err := newServices(st, nil, nil)
		if err != nil {
			return err
		}
		staff, err := svc.staff.Bootstrap(cmd.Context(), service.CreateStaffInput{
			Name:     createStaff.name,
			Username: createStaff.username,
			Password: password,
			Role:     domain.StaffRole(strings.ToUpper(createStaff.role)),
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created %s %s (%s)\n", staff.Role, staff.Username, staff.ID)
		return nil
	},
}

func init() {
	flags := createStaffCmd.Flags()
	flags.StringVar(&createStaff.name, "name", "", "display name")
	flags.StringVar(&createStaff.username, "username", "", "login name")
	flags.StringVar(&createStaff.password, "password", "", "initial password")
	flags.StringVar(&createStaff.role, "role", string(domain.StaffRoleOfficer), "OFFICER or ADMIN")
	_ = createStaffCmd.MarkFlagRequired("name")
	_ = createStaffCmd.MarkFlagRequired("username")
}
