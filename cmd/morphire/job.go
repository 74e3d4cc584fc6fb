package main

import (
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"morphire/internal/api"
	"morphire/internal/config"
)

func newJobCmd(cfg *config.Config, opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "job",
		Short: "Post, track and settle jobs",
	}
	cmd.AddCommand(
		newJobCreateCmd(cfg, opts),
		newJobListCmd(cfg, opts),
		newJobShowCmd(cfg, opts),
		newJobStatusCmd(cfg, opts),
		newJobChatCmd(cfg, opts),
		newJobDeliverCmd(cfg, opts),
		newJobPayCmd(cfg, opts),
	)
	return cmd
}

func newJobCreateCmd(cfg *config.Config, opts *globalOptions) *cobra.Command {
	var req api.JobCreateRequest

	cmd := &cobra.Command{
		Use:   "create <title>",
		Short: "Post a new job",
		Args:  requireAtLeastArgs(1, "title is required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Title = strings.Join(args, " ")
			return withClient(cfg, opts, func(client *api.Client) error {
				job, err := client.CreateJob(cmd.Context(), req)
				if err != nil {
					return err
				}
				return writeOutput(opts, job, func() error { return writePlain("%s\n", job.ID) })
			})
		},
	}

	cmd.Flags().Int64Var(&req.Reward, "reward", 0, "reward amount (required, positive)")
	cmd.Flags().StringVarP(&req.Description, "description", "d", "", "job description")
	cmd.Flags().StringVar(&req.Requirements, "requirements", "", "acceptance requirements")
	cmd.Flags().StringVar(&req.Role, "role", "", "recruiter (MF- ids) or agent (JOB- ids)")
	cmd.Flags().StringSliceVarP(&req.Tags, "tag", "t", nil, "tag (repeatable or comma separated)")
	_ = cmd.MarkFlagRequired("reward")
	return cmd
}

func newJobListCmd(cfg *config.Config, opts *globalOptions) *cobra.Command {
	var status, role, tag string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List jobs in your document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			query := url.Values{}
			setIfNotEmpty(query, "status", status)
			setIfNotEmpty(query, "role", role)
			setIfNotEmpty(query, "tag", tag)
			return withClient(cfg, opts, func(client *api.Client) error {
				jobs, err := client.ListJobs(cmd.Context(), query)
				if err != nil {
					return err
				}
				return writeOutput(opts, jobs, func() error { return writeJobList(jobs) })
			})
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "status filter (comma separated)")
	cmd.Flags().StringVar(&role, "role", "", "role filter")
	cmd.Flags().StringVar(&tag, "tag", "", "tag filter")
	return cmd
}

func newJobShowCmd(cfg *config.Config, opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show job details",
		Args:  requireJobID,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, opts, func(client *api.Client) error {
				job, err := client.GetJob(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return writeOutput(opts, job, func() error { return writeJobDetail(job) })
			})
		},
	}
}

func newJobStatusCmd(cfg *config.Config, opts *globalOptions) *cobra.Command {
	var req api.JobStatusRequest

	cmd := &cobra.Command{
		Use:   "status <id> <status>",
		Short: "Move a job to a new status",
		Args:  requireExactlyArgs(2, "job id and status are required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Status = args[1]
			return withClient(cfg, opts, func(client *api.Client) error {
				job, err := client.UpdateStatus(cmd.Context(), args[0], req)
				if err != nil {
					return err
				}
				return writeOutput(opts, job, func() error { return writePlain("%s\n", formatJobLine(job)) })
			})
		},
	}

	cmd.Flags().StringVar(&req.Agent, "agent", "", "counterpart label when the job is taken up")
	cmd.Flags().StringVar(&req.Handle, "handle", "", "counterpart contact handle")
	return cmd
}

func newJobChatCmd(cfg *config.Config, opts *globalOptions) *cobra.Command {
	var sender string

	cmd := &cobra.Command{
		Use:   "chat <id> <message>",
		Short: "Append a chat message to a job",
		Args:  requireAtLeastArgs(2, "job id and message are required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := api.ChatRequest{Sender: sender, Text: strings.Join(args[1:], " ")}
			return withClient(cfg, opts, func(client *api.Client) error {
				msg, err := client.AppendChat(cmd.Context(), args[0], req)
				if err != nil {
					return err
				}
				return writeOutput(opts, msg, func() error {
					return writePlain("[%s] %s: %s\n", formatTime(msg.Timestamp), msg.Sender, msg.Text)
				})
			})
		},
	}

	cmd.Flags().StringVar(&sender, "sender", "", "sender label (default: profile name)")
	return cmd
}

func newJobDeliverCmd(cfg *config.Config, opts *globalOptions) *cobra.Command {
	var uploader, name string

	cmd := &cobra.Command{
		Use:   "deliver <id> <file>",
		Short: "Upload a deliverable for a job",
		Args:  requireExactlyArgs(2, "job id and file are required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[1])
			if err != nil {
				return err
			}
			defer f.Close()
			filename := firstNonEmpty(name, filepath.Base(args[1]))

			return withClient(cfg, opts, func(client *api.Client) error {
				artifact, err := client.UploadDelivery(cmd.Context(), args[0], filename, uploader, f)
				if err != nil {
					return err
				}
				return writeOutput(opts, artifact, func() error { return writePlain("%s\n", artifact.ContentID) })
			})
		},
	}

	cmd.Flags().StringVar(&uploader, "uploader", "", "uploader label (default: profile name)")
	cmd.Flags().StringVar(&name, "name", "", "filename to record (default: base name of file)")
	return cmd
}

func newJobPayCmd(cfg *config.Config, opts *globalOptions) *cobra.Command {
	var req api.PaymentRequest

	cmd := &cobra.Command{
		Use:   "pay <id>",
		Short: "Settle a completed job",
		Args:  requireJobID,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, opts, func(client *api.Client) error {
				resp, err := client.SettlePayment(cmd.Context(), args[0], req)
				if err != nil {
					return err
				}
				return writeOutput(opts, resp, func() error {
					return writePlain("%s paid %d (ref %s)\n", resp.Job.ID, resp.Transaction.Amount, resp.Transaction.Reference)
				})
			})
		},
	}

	cmd.Flags().StringVar(&req.Counterpart, "counterpart", "", "who receives the payment")
	return cmd
}
