package main

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"vocalsub/internal/services"
	"vocalsub/internal/session"
	"vocalsub/internal/transcript"
)

func newTranscriptCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:         "transcript",
		Short:       "Inspect and edit subtitle files",
		Annotations: map[string]string{"skipConfigLoad": "true"},
	}
	cmd.AddCommand(newTranscriptShowCommand())
	cmd.AddCommand(newTranscriptBlocksCommand())
	cmd.AddCommand(newTranscriptSpeakersCommand())
	cmd.AddCommand(newTranscriptRenameCommand())
	cmd.AddCommand(newTranscriptEditCommand())
	cmd.AddCommand(newTranscriptDeleteCommand())
	cmd.AddCommand(newTranscriptExportCommand())
	return cmd
}

func newTranscriptShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <file.srt>",
		Short: "List segments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := session.Open(args[0])
			if err != nil {
				return err
			}
			segments := sess.Segments()
			out := cmd.OutOrStdout()
			if len(segments) == 0 {
				fmt.Fprintln(out, "No segments")
				return nil
			}
			rows := lo.Map(segments, func(seg transcript.Segment, _ int) []string {
				return []string{
					strconv.Itoa(seg.ID),
					transcript.FormatTimestamp(seg.Start),
					transcript.FormatTimestamp(seg.End),
					seg.Label(),
					seg.Text,
				}
			})
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "Start", "End", "Speaker", "Text"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignWrap},
			))
			return nil
		},
	}
}

func newTranscriptBlocksCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "blocks <file.srt>",
		Short: "Show the transcript grouped into speaker turns",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := session.Open(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			blocks := sess.Blocks()
			if len(blocks) == 0 {
				fmt.Fprintln(out, "No segments")
				return nil
			}
			palette := newSpeakerPalette(out, sess.Speakers())
			for i, block := range blocks {
				if i > 0 {
					fmt.Fprintln(out)
				}
				fmt.Fprintf(out, "[%s - %s] %s\n",
					transcript.FormatTimestamp(block.StartTime()),
					transcript.FormatTimestamp(block.EndTime()),
					palette.paint(block.Speaker),
				)
				fmt.Fprintln(out, block.FullText())
			}
			return nil
		},
	}
}

func newTranscriptSpeakersCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "speakers <file.srt>",
		Short: "Summarize speaking time per speaker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := session.Open(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			segments := sess.Segments()
			if len(segments) == 0 {
				fmt.Fprintln(out, "No segments")
				return nil
			}
			bySpeaker := lo.GroupBy(segments, func(seg transcript.Segment) string { return seg.Label() })
			rows := make([][]string, 0, len(bySpeaker))
			for _, speaker := range sess.Speakers() {
				segs := bySpeaker[speaker]
				total := lo.SumBy(segs, func(seg transcript.Segment) time.Duration { return seg.Duration() })
				rows = append(rows, []string{
					speaker,
					strconv.Itoa(len(segs)),
					transcript.FormatTimestamp(total),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Speaker", "Segments", "Speaking time"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignRight},
			))
			return nil
		},
	}
}

func newTranscriptRenameCommand() *cobra.Command {
	var mapFile string

	cmd := &cobra.Command{
		Use:   "rename <file.srt> [old new]",
		Short: "Rename speakers in place",
		Long: "Rename one speaker with <old> <new>, or several at once with --map pointing at a\n" +
			"YAML file of old: new pairs. Map renames are applied simultaneously, so\n" +
			"swapping two names works.",
		Args: cobra.RangeArgs(1, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			mapping, err := renameMapping(args[1:], mapFile)
			if err != nil {
				return err
			}
			sess, err := session.Open(args[0])
			if err != nil {
				return err
			}
			changed, err := applyRenames(sess, mapping)
			if err != nil {
				return err
			}
			if changed > 0 {
				if err := sess.Save(); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Renamed %d segment(s) in %s\n", changed, sess.Path())
			return nil
		},
	}
	cmd.Flags().StringVarP(&mapFile, "map", "m", "", "YAML file mapping old speaker names to new ones")
	return cmd
}

func renameMapping(pair []string, mapFile string) (map[string]string, error) {
	mapFile = strings.TrimSpace(mapFile)
	switch {
	case mapFile != "" && len(pair) > 0:
		return nil, services.Wrap(services.ErrValidation, "", "rename", "arguments", fmt.Errorf("use either <old> <new> or --map, not both"))
	case mapFile != "":
		data, err := os.ReadFile(mapFile)
		if err != nil {
			return nil, fmt.Errorf("read rename map: %w", err)
		}
		var mapping map[string]string
		if err := yaml.Unmarshal(data, &mapping); err != nil {
			return nil, fmt.Errorf("parse rename map: %w", err)
		}
		if len(mapping) == 0 {
			return nil, services.Wrap(services.ErrValidation, "", "rename", "map", fmt.Errorf("%s has no entries", mapFile))
		}
		cleaned := make(map[string]string, len(mapping))
		for oldName, newName := range mapping {
			oldName = transcript.NormalizeSpeaker(oldName)
			newName = transcript.NormalizeSpeaker(newName)
			if oldName == "" || newName == "" {
				return nil, fmt.Errorf("%w: rename map entries need both names", transcript.ErrInvalidSpeaker)
			}
			cleaned[oldName] = newName
		}
		return cleaned, nil
	case len(pair) == 2:
		oldName := transcript.NormalizeSpeaker(pair[0])
		newName := transcript.NormalizeSpeaker(pair[1])
		if oldName == "" || newName == "" {
			return nil, fmt.Errorf("%w: both names are required", transcript.ErrInvalidSpeaker)
		}
		return map[string]string{oldName: newName}, nil
	default:
		return nil, services.Wrap(services.ErrValidation, "", "rename", "arguments", fmt.Errorf("expected <old> <new> or --map"))
	}
}

// applyRenames relabels every segment whose current label is a key of
// mapping. Labels are read before any change, so chains and swaps resolve
// against the original names.
func applyRenames(sess *session.Session, mapping map[string]string) (int, error) {
	if len(mapping) == 1 {
		for oldName, newName := range mapping {
			return sess.RenameSpeaker(oldName, newName)
		}
	}
	changed := 0
	for _, seg := range sess.Segments() {
		newName, ok := mapping[seg.Label()]
		if !ok || newName == seg.Speaker {
			continue
		}
		if _, err := sess.Update(seg.ID, transcript.Update{Speaker: lo.ToPtr(newName)}); err != nil {
			return changed, err
		}
		changed++
	}
	return changed, nil
}

type editFlags struct {
	start   string
	end     string
	speaker string
	text    string
}

func newTranscriptEditCommand() *cobra.Command {
	var flags editFlags

	cmd := &cobra.Command{
		Use:   "edit <file.srt> <id>",
		Short: "Change one segment's timing, speaker, or text in place",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseSegmentID(args[1])
			if err != nil {
				return err
			}
			update, err := flags.update(cmd)
			if err != nil {
				return err
			}
			sess, err := session.Open(args[0])
			if err != nil {
				return err
			}
			seg, err := sess.Update(id, update)
			if err != nil {
				return err
			}
			if err := sess.Save(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Segment %d: %s --> %s %s: %s\n",
				seg.ID,
				transcript.FormatTimestamp(seg.Start),
				transcript.FormatTimestamp(seg.End),
				seg.Label(),
				seg.Text,
			)
			return nil
		},
	}
	cmd.Flags().StringVar(&flags.start, "start", "", "New start time (HH:MM:SS,mmm)")
	cmd.Flags().StringVar(&flags.end, "end", "", "New end time (HH:MM:SS,mmm)")
	cmd.Flags().StringVar(&flags.speaker, "speaker", "", "New speaker name")
	cmd.Flags().StringVar(&flags.text, "text", "", "New text")
	return cmd
}

func (f editFlags) update(cmd *cobra.Command) (transcript.Update, error) {
	var u transcript.Update
	changed := cmd.Flags().Changed
	if changed("start") {
		start, err := transcript.ParseTimestamp(f.start)
		if err != nil {
			return u, fmt.Errorf("%w: %v", services.ErrValidation, err)
		}
		u.Start = &start
	}
	if changed("end") {
		end, err := transcript.ParseTimestamp(f.end)
		if err != nil {
			return u, fmt.Errorf("%w: %v", services.ErrValidation, err)
		}
		u.End = &end
	}
	if changed("speaker") {
		u.Speaker = lo.ToPtr(f.speaker)
	}
	if changed("text") {
		u.Text = lo.ToPtr(f.text)
	}
	if u == (transcript.Update{}) {
		return u, fmt.Errorf("%w: nothing to change; pass --start, --end, --speaker or --text", services.ErrValidation)
	}
	return u, nil
}

func newTranscriptDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <file.srt> <id>...",
		Short: "Remove segments in place",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]int, 0, len(args)-1)
			for _, arg := range args[1:] {
				id, err := parseSegmentID(arg)
				if err != nil {
					return err
				}
				ids = append(ids, id)
			}
			ids = lo.Uniq(ids)
			sess, err := session.Open(args[0])
			if err != nil {
				return err
			}
			for _, id := range ids {
				if _, err := sess.Get(id); err != nil {
					return err
				}
			}
			for _, id := range ids {
				if err := sess.Delete(id); err != nil {
					return err
				}
			}
			if err := sess.Save(); err != nil {
				return err
			}
			slices.Sort(ids)
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted segment(s) %s\n", joinInts(ids))
			return nil
		},
	}
}

func newTranscriptExportCommand() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "export <file.srt>",
		Short: "Write the transcript to <stem>_edited.srt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := session.Open(args[0])
			if err != nil {
				return err
			}
			path, err := sess.ExportEdited(strings.TrimSpace(dir))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&dir, "dir", "d", "", "Destination directory (default: next to the source)")
	return cmd
}

func parseSegmentID(value string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid segment id %q", services.ErrValidation, value)
	}
	return id, nil
}

func joinInts(values []int) string {
	return strings.Join(lo.Map(values, func(v int, _ int) string { return strconv.Itoa(v) }), ", ")
}
