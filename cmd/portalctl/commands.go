package main

import (
	"fmt"
	"strings"
	"time"

	"formsportal/internal/config"
	"formsportal/internal/database"
	"formsportal/internal/middleware"
	"formsportal/internal/model"
	"formsportal/internal/repository"
	"formsportal/internal/service"

	"github.com/spf13/cobra"
)

var (
	userEmployeeID string
	userName       string
	userEmail      string
	userPassword   string
	userRole       string
	userBranch     string
	userDepartment string
	userForms      []string

	tokenUserID string
	tokenName   string
	tokenRole   string
	tokenTTL    time.Duration
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update every table",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, db, zlog, err := openDB()
		if err != nil {
			return err
		}
		defer func() { _ = database.Close(db) }()

		forms := model.FormTypes()
		if err := database.Migrate(db, forms); err != nil {
			return err
		}
		zlog.Info("migration complete")
		fmt.Fprintf(cmd.OutOrStdout(), "migrated %d form types\n", len(forms))
		return nil
	},
}

var nextCodeCmd = &cobra.Command{
	Use:   "next-code <form>",
	Short: "Preview the next reference code of a form",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		form, err := service.ResolveForm(args[0])
		if err != nil {
			return err
		}
		_, db, _, err := openDB()
		if err != nil {
			return err
		}
		defer func() { _ = database.Close(db) }()

		seq := service.NewCodeSequencer(repository.NewSequenceRepository(db), nil)
		code, err := seq.Preview(cmd.Context(), form)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), code)
		return nil
	},
}

var createUserCmd = &cobra.Command{
	Use:   "create-user",
	Short: "Create a user and grant form access",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, db, zlog, err := openDB()
		if err != nil {
			return err
		}
		defer func() { _ = database.Close(db) }()

		users := service.NewUserService(repository.NewUserRepository(db), cfg.Auth.BcryptCost, zlog)
		ctx := cmd.Context()
		user, err := users.CreateUser(ctx, service.CreateUserRequest{
			EmployeeID: userEmployeeID,
			Name:       userName,
			Email:      userEmail,
			Password:   userPassword,
			Role:       userRole,
			Branch:     userBranch,
			Department: userDepartment,
		})
		if err != nil {
			return err
		}
		if len(userForms) > 0 {
			if _, err := users.SetAccess(ctx, user.ID.String(), service.UserAccessRequest{
				Role:        userRole,
				AccessForms: userForms,
			}); err != nil {
				return err
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created %s (%s) id=%s forms=%s\n",
			user.Name, user.Role, user.ID, strings.Join(userForms, ","))
		return nil
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Sign an access token for local testing",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !model.ValidRole(tokenRole) {
			return fmt.Errorf("invalid role %q", tokenRole)
		}
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		token, err := middleware.SignToken(cfg.Auth.JWTSecret, middleware.Claims{
			UserID: tokenUserID,
			Name:   tokenName,
			Role:   tokenRole,
		}, tokenTTL)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	createUserCmd.Flags().StringVar(&userEmployeeID, "employee-id", "", "Employee ID")
	createUserCmd.Flags().StringVar(&userName, "name", "", "Full name")
	createUserCmd.Flags().StringVar(&userEmail, "email", "", "Email address")
	createUserCmd.Flags().StringVar(&userPassword, "password", "", "Initial password (min 8 characters)")
	createUserCmd.Flags().StringVar(&userRole, "role", model.RoleEmployee, "admin, approver, accounting or employee")
	createUserCmd.Flags().StringVar(&userBranch, "branch", "", "Branch")
	createUserCmd.Flags().StringVar(&userDepartment, "department", "", "Department")
	createUserCmd.Flags().StringSliceVar(&userForms, "forms", nil, "Form keys the user may open (repeat or comma separate, * for all)")
	for _, name := range []string{"employee-id", "name", "email", "password"} {
		_ = createUserCmd.MarkFlagRequired(name)
	}

	tokenCmd.Flags().StringVar(&tokenUserID, "user-id", "", "Subject user id")
	tokenCmd.Flags().StringVar(&tokenName, "name", "", "Display name")
	tokenCmd.Flags().StringVar(&tokenRole, "role", model.RoleEmployee, "Role claim")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "Token lifetime")
	_ = tokenCmd.MarkFlagRequired("user-id")

	rootCmd.AddCommand(migrateCmd, nextCodeCmd, createUserCmd, tokenCmd)
}
