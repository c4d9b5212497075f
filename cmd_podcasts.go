package main

import (
	"context"
	"fmt"
	"time"

	"cosmiq-cli/internal/api"
	"cosmiq-cli/internal/display"
	"cosmiq-cli/internal/service"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const defaultPollInterval = 5 * time.Second

func newPodcastsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "podcasts",
		Aliases: []string{"podcast"},
		Short:   "Generate podcasts from a notebook and list episodes",
	}

	var notebook string
	episodes := &cobra.Command{
		Use:   "episodes",
		Short: "List podcast episodes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.backend()
			if err != nil {
				return err
			}
			nb, err := a.notebook(notebook)
			if err != nil {
				return err
			}
			eps, err := client.ListPodcastEpisodes(cmd.Context(), nb)
			if err != nil {
				return fmt.Errorf("listing episodes: %w", err)
			}
			return a.print(eps, func() *display.Table {
				t := &display.Table{Headers: []string{"ID", "Name", "Episode profile", "Speakers", "Status", "Audio", "Created"}}
				for _, e := range eps {
					row := service.FormatEpisodeRow(e)
					t.Append(row.ID, row.Name, row.EpisodeProfile, row.SpeakerProfile, row.Status, yesNo(row.HasAudio), display.FormatTime(row.Created))
				}
				return t
			})
		},
	}
	episodes.Flags().StringVarP(&notebook, "notebook", "n", "", "notebook id or URL (default: configured notebook)")

	profiles := &cobra.Command{
		Use:   "profiles",
		Short: "List or delete episode and speaker profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.backend()
			if err != nil {
				return err
			}
			eps, err := client.ListEpisodeProfiles(cmd.Context())
			if err != nil {
				return fmt.Errorf("listing episode profiles: %w", err)
			}
			speakers, err := client.ListSpeakerProfiles(cmd.Context())
			if err != nil {
				return fmt.Errorf("listing speaker profiles: %w", err)
			}
			if a.format != display.FormatTable {
				return a.print(map[string]any{"episode_profiles": eps, "speaker_profiles": speakers}, nil)
			}

			display.Header("Episode profiles")
			t := &display.Table{Headers: []string{"Name", "Speakers", "Segments", "Description"}}
			for _, p := range eps {
				t.Append(p.Name, p.SpeakerConfig, fmt.Sprint(p.NumSegments), service.Truncate(p.Description, 60))
			}
			if err := t.Write(display.Out); err != nil {
				return err
			}
			display.Header("Speaker profiles")
			t = &display.Table{Headers: []string{"Name", "Voices", "TTS", "Description"}}
			for _, p := range speakers {
				t.Append(p.Name, fmt.Sprint(len(p.Speakers)), p.TTSProvider+"/"+p.TTSModel, service.Truncate(p.Description, 60))
			}
			return t.Write(display.Out)
		},
	}

	var (
		req  api.GeneratePodcastRequest
		wait bool
	)
	generate := &cobra.Command{
		Use:     "generate <episode-name>",
		Short:   "Generate a podcast episode from a notebook",
		Example: `  cosmiq podcasts generate "Weekly digest" --episode-profile tech_discussion --speaker-profile tech_experts --wait`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if req.EpisodeProfile == "" || req.SpeakerProfile == "" {
				return fmt.Errorf("--episode-profile and --speaker-profile are required (see: cosmiq podcasts profiles)")
			}
			client, err := a.backend()
			if err != nil {
				return err
			}
			if req.Content == "" {
				if req.NotebookID, err = a.notebook(notebook); err != nil {
					return err
				}
			}
			req.EpisodeName = args[0]

			job, err := client.GeneratePodcast(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("starting podcast generation: %w", err)
			}
			a.log.Info("podcast job started", zap.String("job", job.JobID), zap.String("episode", req.EpisodeName))
			if !wait {
				if a.format != display.FormatTable {
					return a.print(job, nil)
				}
				display.Success(fmt.Sprintf("Generation started (job %s)", job.JobID))
				display.Info("Status:", service.PodcastStatusLabel(job.Status))
				fmt.Fprintf(display.Out, "\n  %sTip:%s Run %scosmiq%s podcasts job %s --wait%s to follow it.\n\n",
					display.Dim, display.Reset, display.Cyan, a.profileFlag(), job.JobID, display.Reset)
				return nil
			}
			return a.followJob(cmd.Context(), client, job.JobID, defaultPollInterval)
		},
	}
	generate.Flags().StringVarP(&notebook, "notebook", "n", "", "notebook id or URL (default: configured notebook)")
	generate.Flags().StringVar(&req.EpisodeProfile, "episode-profile", "", "episode profile name")
	generate.Flags().StringVar(&req.SpeakerProfile, "speaker-profile", "", "speaker profile name")
	generate.Flags().StringVar(&req.Content, "content", "", "generate from this text instead of a notebook")
	generate.Flags().StringVar(&req.BriefingSuffix, "briefing", "", "extra instructions appended to the briefing")
	generate.Flags().BoolVarP(&wait, "wait", "w", false, "wait for the job to finish")

	var jobWait bool
	job := &cobra.Command{
		Use:   "job <job-id>",
		Short: "Show the status of a generation job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.backend()
			if err != nil {
				return err
			}
			if jobWait {
				return a.followJob(cmd.Context(), client, args[0], defaultPollInterval)
			}
			status, err := client.GetPodcastJob(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("getting job: %w", err)
			}
			if a.format != display.FormatTable {
				return a.print(status, nil)
			}
			printJobStatus(status)
			return nil
		},
	}
	job.Flags().BoolVarP(&jobWait, "wait", "w", false, "poll until the job finishes")

	del := &cobra.Command{
		Use:   "delete <episode-id>",
		Short: "Delete a podcast episode",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.backend()
			if err != nil {
				return err
			}
			if err := client.DeletePodcastEpisode(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("deleting episode: %w", err)
			}
			display.Success("Deleted " + args[0])
			return nil
		},
	}

	var speaker bool
	deleteProfile := &cobra.Command{
		Use:   "delete <profile-id>",
		Short: "Delete an episode profile, or a speaker profile with --speaker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.backend()
			if err != nil {
				return err
			}
			kind := "episode"
			if speaker {
				kind = "speaker"
				err = client.DeleteSpeakerProfile(cmd.Context(), args[0])
			} else {
				err = client.DeleteEpisodeProfile(cmd.Context(), args[0])
			}
			if err != nil {
				return fmt.Errorf("deleting %s profile: %w", kind, err)
			}
			display.Success(fmt.Sprintf("Deleted %s profile %s", kind, args[0]))
			return nil
		},
	}
	deleteProfile.Flags().BoolVar(&speaker, "speaker", false, "delete a speaker profile")
	profiles.AddCommand(deleteProfile)

	episode := &cobra.Command{
		Use:   "episode <episode-id>",
		Short: "Show one podcast episode and its briefing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.backend()
			if err != nil {
				return err
			}
			ep, err := client.GetPodcastEpisode(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("getting episode: %w", err)
			}
			if a.format != display.FormatTable {
				return a.print(ep, nil)
			}
			row := service.FormatEpisodeRow(*ep)
			display.Header("🎙 " + row.Name)
			display.Info("ID:", row.ID)
			display.Info("Status:", row.Status)
			display.Info("Episode profile:", row.EpisodeProfile)
			display.Info("Speaker profile:", row.SpeakerProfile)
			if row.HasAudio {
				display.Info("Audio:", *ep.AudioFile)
			}
			display.Info("Created:", display.FormatTime(row.Created))
			if ep.Briefing != "" {
				fmt.Fprintln(display.Out)
				display.SubHeader("Briefing")
				fmt.Fprintln(display.Out, display.RenderMarkdown(ep.Briefing))
			}
			fmt.Fprintln(display.Out)
			return nil
		},
	}

	cmd.AddCommand(episodes, episode, profiles, generate, job, del)
	return cmd
}

// followJob polls a podcast job until it reaches a terminal status.
func (a *app) followJob(ctx context.Context, client api.API, jobID string, every time.Duration) error {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	last := ""
	for {
		status, err := client.GetPodcastJob(ctx, jobID)
		if err != nil {
			display.ClearLine()
			return fmt.Errorf("getting job: %w", err)
		}
		label := service.PodcastStatusLabel(status.Status)
		if label != last {
			a.log.Debug("podcast job status", zap.String("job", jobID), zap.String("status", status.Status))
			last = label
		}
		if service.PodcastJobDone(status.Status) {
			display.ClearLine()
			if a.format != display.FormatTable {
				return a.print(status, nil)
			}
			printJobStatus(status)
			if label == "Failed" {
				return fmt.Errorf("podcast generation failed")
			}
			return nil
		}
		display.Spinner(fmt.Sprintf("Job %s: %s...", jobID, label))

		select {
		case <-ctx.Done():
			display.ClearLine()
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func printJobStatus(s *api.PodcastJobStatus) {
	label := service.PodcastStatusLabel(s.Status)
	switch label {
	case "Completed":
		display.Success("Job " + s.JobID + " completed")
	case "Failed":
		display.Error("Job " + s.JobID + " failed")
	default:
		display.Warn("Job " + s.JobID + " is " + label)
	}
	if s.Message != "" {
		display.Info("Message:", s.Message)
	}
	if s.Error != "" {
		display.Info("Error:", s.Error)
	}
	if s.Updated != "" {
		display.Info("Updated:", display.FormatTime(s.Updated))
	}
}
