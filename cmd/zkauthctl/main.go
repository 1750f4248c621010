// Command zkauthctl is a small operator CLI for exercising zkauth's
// register/login flow against the in-memory reference backends, useful
// for local testing and demos. Grounded on internal/cli's cobra command
// tree (a root command plus one subcommand per operation, each parsing
// flags into a config struct before calling into the library).
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jeremyhahn/zkauth/pkg/authcore"
	"github.com/jeremyhahn/zkauth/pkg/backendref"
	"github.com/jeremyhahn/zkauth/pkg/twofactor"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "zkauthctl",
		Short: "Exercise zkauth registration and login against reference backends",
	}
	root.AddCommand(newRegisterCmd(), newLoginCmd(), newTOTPCmd())
	return root
}

func newAuthCore() (*authcore.AuthCore, error) {
	backends := []backendref.Backend{
		backendref.NewZcashBackend(),
		backendref.NewStarknetBackend(),
		backendref.NewSolanaBackend(),
	}
	return authcore.New(authcore.AuthCoreConfig{
		Backends:  backends,
		Threshold: 2,
	})
}

func newRegisterCmd() *cobra.Command {
	var pk, email string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a new user, splitting a fresh master key across the reference backends",
		RunE: func(cmd *cobra.Command, args []string) error {
			core, err := newAuthCore()
			if err != nil {
				return err
			}
			result, err := core.Register(context.Background(), pk, email)
			if err != nil {
				return err
			}
			fmt.Printf("registered userId=%s masterKeyHash=%s threshold=%d/%d\n",
				result.UserID, result.MasterKeyHash, result.Threshold, result.TotalShares)
			return nil
		},
	}
	cmd.Flags().StringVar(&pk, "pk", "", "hex-encoded public key")
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.MarkFlagRequired("pk")
	cmd.MarkFlagRequired("email")
	return cmd
}

func newLoginCmd() *cobra.Command {
	var pk, email string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in by reconstructing the master key from a threshold of backends",
		RunE: func(cmd *cobra.Command, args []string) error {
			core, err := newAuthCore()
			if err != nil {
				return err
			}
			result, err := core.Login(context.Background(), pk, email)
			if err != nil {
				return err
			}
			session, err := core.CreateSession(result, pk)
			if err != nil {
				return err
			}
			fmt.Printf("login ok userId=%s sharesUsed=%d token=%s\n", result.UserID, result.SharesUsed, session.Token)
			return nil
		},
	}
	cmd.Flags().StringVar(&pk, "pk", "", "hex-encoded public key")
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.MarkFlagRequired("pk")
	cmd.MarkFlagRequired("email")
	return cmd
}

func newTOTPCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "totp",
		Short: "TOTP enrollment utilities",
	}
	var email string
	enrollCmd := &cobra.Command{
		Use:   "enroll",
		Short: "Generate a new TOTP secret and backup codes",
		RunE: func(cmd *cobra.Command, args []string) error {
			state, codes, err := twofactor.Enroll(email)
			if err != nil {
				return err
			}
			fmt.Printf("secret=%s\n", state.TOTPSecret)
			fmt.Println("backup codes:")
			for _, c := range codes {
				fmt.Printf("  %s\n", c)
			}
			return nil
		},
	}
	enrollCmd.Flags().StringVar(&email, "email", "", "security email to bind the enrollment to")
	enrollCmd.MarkFlagRequired("email")
	root.AddCommand(enrollCmd)
	return root
}
