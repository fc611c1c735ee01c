package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/vibast-solutions/ms-go-dagpay/app/dagpay"
	"github.com/vibast-solutions/ms-go-dagpay/config"
)

var (
	nonceLength       int
	verifyEnvironment string
	verifyFile        string
)

var nonceCmd = &cobra.Command{
	Use:   "nonce",
	Short: "Print a fresh random nonce",
	RunE: func(cmd *cobra.Command, _ []string) error {
		nonce, err := dagpay.NewNonceGenerator().Generate(nonceLength)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), nonce)
		return err
	},
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify a status record offline against a configured environment",
	Long:  "Read a Dagpay invoice status record from --file (or stdin) and check its signature with the secret of --environment.",
	RunE:  runVerify,
}

func init() {
	rootCmd.AddCommand(nonceCmd)
	rootCmd.AddCommand(verifyCmd)

	nonceCmd.Flags().IntVar(&nonceLength, "length", dagpay.NonceLength, "Nonce length in characters")
	verifyCmd.Flags().StringVar(&verifyEnvironment, "environment", "", "Environment name; the default environment when empty")
	verifyCmd.Flags().StringVar(&verifyFile, "file", "", "Path to the status record; stdin when empty")
}

func runVerify(cmd *cobra.Command, _ []string) error {
	dagpayCfg, err := config.LoadDagpay()
	if err != nil {
		return err
	}
	registry, err := newEnvironmentRegistry(*dagpayCfg)
	if err != nil {
		return err
	}

	payload, err := readVerifyInput(cmd.InOrStdin())
	if err != nil {
		return err
	}

	verification, err := dagpay.NewCallbackVerifier(registry).Verify(payload, verifyEnvironment)
	if err != nil {
		var rejection *dagpay.RejectionError
		if errors.As(err, &rejection) {
			logrus.WithField("reason", string(rejection.Reason)).Debug("Status record rejected")
		}
		return err
	}

	_, err = fmt.Fprintf(cmd.OutOrStdout(), "valid: invoice=%s state=%s environment=%s\n",
		verification.Status.ID,
		verification.Status.State,
		verification.Environment.Name,
	)
	return err
}

func readVerifyInput(stdin io.Reader) ([]byte, error) {
	if verifyFile == "" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(verifyFile)
}
