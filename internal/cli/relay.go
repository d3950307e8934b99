package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/urbandao/urbandao/internal/cli/render"
	"github.com/urbandao/urbandao/internal/domain"
	"github.com/urbandao/urbandao/internal/domain/models"
	"github.com/urbandao/urbandao/internal/usecase"
)

// NewRelayCmd creates the relay command group
func NewRelayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "relay",
		Short: "Sign and submit gasless meta-transactions",
		Long: `Citizens sign forward requests offline; a trusted relayer submits them.
The module sees the signer, not the relayer, as the caller.`,
	}
	cmd.AddCommand(newRelaySignCmd(), newRelaySubmitCmd())
	return cmd
}

func newRelaySignCmd() *cobra.Command {
	var (
		ttl    time.Duration
		nonce  uint64
		output string
	)

	cmd := &cobra.Command{
		Use:   "sign <module> <method> [args...]",
		Short: "Sign a forward request with the --from key",
		Long: `Sign a forward request without executing it. The request is printed as
JSON, or written to --out.

Examples:
  urbandao relay sign grievance fileGrievance 7 "Pothole" ipfs://img --from alice --out req.json
  urbandao relay sign token transfer 0xabc... 5 --from alice --ttl 10m`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			params := usecase.SignRelayParams{
				From:   app.Config.From,
				Module: args[0],
				Method: args[1],
				Args:   args[2:],
				TTL:    ttl,
				Out:    output,
			}
			if cmd.Flags().Changed("nonce") {
				params.Nonce = &nonce
			}
			signed, err := app.SignRelay.Execute(cmd.Context(), params)
			if err != nil {
				return err
			}

			if output == "" || app.Config.JSON {
				return render.JSON(cmd.OutOrStdout(), signed)
			}
			render.RenderSigned(cmd.OutOrStdout(), signed, output)
			return nil
		},
	}

	cmd.Flags().DurationVar(&ttl, "ttl", usecase.DefaultRelayTTL, "How long the request stays valid")
	cmd.Flags().Uint64Var(&nonce, "nonce", 0, "Nonce to sign with (default: the signer's next nonce)")
	cmd.Flags().StringVarP(&output, "out", "o", "", "Write the signed request to this file")
	return cmd
}

func newRelaySubmitCmd() *cobra.Command {
	var relayer string

	cmd := &cobra.Command{
		Use:   "submit <request.json>...",
		Short: "Submit signed requests as a relayer",
		Long: `Execute signed forward requests in order. Each request commits or fails
on its own; a failed request leaves its nonce unused.

A file may hold one signed request or a JSON array of them.

Examples:
  urbandao relay submit req.json --relayer relayer
  urbandao relay submit batch.json req2.json --relayer relayer`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			if relayer == "" {
				relayer = app.Config.From
			}
			result, err := app.SubmitRelay.Execute(cmd.Context(), usecase.SubmitRelayParams{
				Relayer: relayer,
				Files:   args,
			})
			if err != nil {
				return err
			}

			if app.Config.JSON {
				return render.JSON(cmd.OutOrStdout(), relayJSON(result))
			}
			render.RenderRelay(cmd.OutOrStdout(), result)
			if result.Succeeded() == 0 {
				return fmt.Errorf("%w: no request was relayed", domain.ErrInvalidState)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&relayer, "relayer", "", "Key the relayer submits with (default: --from)")
	return cmd
}

type relayResultJSON struct {
	models.RelayResult
	Error string `json:"error,omitempty"`
}

// relayJSON carries per-request errors, which RelayResult keeps out of JSON
func relayJSON(res *usecase.SubmitRelayResult) interface{} {
	results := make([]relayResultJSON, len(res.Results))
	for i, r := range res.Results {
		results[i] = relayResultJSON{RelayResult: r}
		if r.Err != nil {
			results[i].Error = r.Err.Error()
		}
	}
	return map[string]interface{}{
		"relayer":   res.Relayer,
		"succeeded": res.Succeeded(),
		"results":   results,
	}
}
