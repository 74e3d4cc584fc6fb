package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"morphire/internal/api"
	"morphire/internal/config"
)

func newProfileCmd(cfg *config.Config, opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or update your profile",
	}
	cmd.AddCommand(
		newProfileShowCmd(cfg, opts),
		newProfileUpdateCmd(cfg, opts),
		newProfileRateCmd(cfg, opts),
	)
	return cmd
}

func newProfileShowCmd(cfg *config.Config, opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show your profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, opts, func(client *api.Client) error {
				doc, err := client.GetDocument(cmd.Context())
				if err != nil {
					return err
				}
				return writeOutput(opts, doc.Profile, func() error { return writeProfile(doc.Profile) })
			})
		},
	}
}

func newProfileUpdateCmd(cfg *config.Config, opts *globalOptions) *cobra.Command {
	var name, bio string
	var skills []string

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update profile fields",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := api.ProfileUpdateRequest{}
			if cmd.Flags().Changed("name") {
				req.Name = &name
			}
			if cmd.Flags().Changed("bio") {
				req.Bio = &bio
			}
			if cmd.Flags().Changed("skills") {
				req.Skills = append([]string{}, skills...)
			}
			if req.Name == nil && req.Bio == nil && req.Skills == nil {
				return fmt.Errorf("nothing to update; pass --name, --bio or --skills")
			}
			return withClient(cfg, opts, func(client *api.Client) error {
				profile, err := client.UpdateProfile(cmd.Context(), req)
				if err != nil {
					return err
				}
				return writeOutput(opts, profile, func() error { return writeProfile(profile) })
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&bio, "bio", "", "short bio")
	cmd.Flags().StringSliceVar(&skills, "skills", nil, "skills (comma separated)")
	return cmd
}

func newProfileRateCmd(cfg *config.Config, opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rate <1-5>",
		Short: "Record a rating and recompute the credit score",
		Args:  requireExactlyArgs(1, "rating is required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			rating, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("invalid rating %q", args[0])
			}
			return withClient(cfg, opts, func(client *api.Client) error {
				resp, err := client.RecordRating(cmd.Context(), api.RatingRequest{Rating: rating})
				if err != nil {
					return err
				}
				return writeOutput(opts, resp, func() error {
					return writePlain("credit_score: %d (%d ratings)\n", resp.CreditScore, resp.Ratings)
				})
			})
		},
	}
}
