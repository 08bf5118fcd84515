package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"imagesaid/internal/rename"
	"imagesaid/internal/scan"
	"imagesaid/pkg/types"
)

func newNameCmd(a *app) *cobra.Command {
	var (
		dir       string
		recursive bool
		prompt    string
		template  string
		planPath  string
		apply     bool
	)
	cmd := &cobra.Command{
		Use:   "name [files...]",
		Short: "Suggest names for images, optionally writing a plan or renaming",
		Example: "  imagesaid name IMG_0001.jpg IMG_0002.jpg\n" +
			"  imagesaid name --dir ~/Pictures/inbox --plan plan.yaml\n" +
			"  imagesaid name --dir . --template pets --apply",
		RunE: func(cmd *cobra.Command, args []string) error {
			files := append([]string(nil), args...)
			if dir != "" {
				found, err := scan.Images(dir, recursive)
				if err != nil {
					return err
				}
				files = append(files, found...)
			}
			if len(files) == 0 {
				return fmt.Errorf("no images given: pass files or --dir")
			}
			if prompt == "" {
				p, err := a.svc.ResolvePrompt(template)
				if err != nil {
					return err
				}
				prompt = p
			}

			plan := types.RenamePlan{ID: uuid.NewString(), CreatedAt: time.Now().UTC(), Model: a.cfg.Model}
			req := types.NameRequest{Prompt: prompt}
			if cmd.Flags().Changed("context-length") {
				req.ContextLength = a.cfg.ContextLength
			}
			failed := 0
			// one image at a time; the inference server is the bottleneck
			for _, f := range files {
				req.ImagePath = f
				res, err := a.svc.GenerateName(cmd.Context(), req)
				if err != nil {
					failed++
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", f, err)
					continue
				}
				fmt.Fprintf(a.out, "%s -> %s (%d ms)\n", f, res.NewName, res.ProcessingTimeMS)
				plan.Renames = append(plan.Renames, types.RenameOperation{OldPath: f, NewName: res.NewName})
			}
			unique := rename.Disambiguate(plan.Renames)
			for i, op := range unique {
				if op.NewName != plan.Renames[i].NewName {
					fmt.Fprintf(a.out, "%s -> %s (%s is taken)\n", op.OldPath, op.NewName, plan.Renames[i].NewName)
				}
			}
			plan.Renames = unique

			if planPath != "" {
				if err := writePlan(planPath, plan); err != nil {
					return err
				}
				fmt.Fprintf(a.out, "plan %s written to %s (%d renames)\n", plan.ID, planPath, len(plan.Renames))
			}
			if apply && len(plan.Renames) > 0 {
				n, err := a.svc.ApplyRenames(plan.Renames)
				fmt.Fprintf(a.out, "renamed %d of %d files\n", n, len(plan.Renames))
				if err != nil {
					return err
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d images failed", failed, len(files))
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&dir, "dir", "", "Directory to scan for images")
	f.BoolVar(&recursive, "recursive", false, "Scan --dir recursively")
	f.StringVar(&prompt, "prompt", "", "Prompt text (overrides --template)")
	f.StringVar(&template, "template", "", "Prompt template name from the config")
	f.StringVar(&planPath, "plan", "", "Write the suggested renames to this file (.json or .yaml)")
	f.BoolVar(&apply, "apply", false, "Rename the files right away")
	return cmd
}

func newRenameCmd(a *app) *cobra.Command {
	var planPath string
	cmd := &cobra.Command{
		Use:   "rename --plan <file>",
		Short: "Apply a rename plan written by `name --plan`",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if planPath == "" {
				return fmt.Errorf("--plan is required")
			}
			plan, err := readPlan(planPath)
			if err != nil {
				return err
			}
			n, err := a.svc.ApplyRenames(plan.Renames)
			fmt.Fprintf(a.out, "renamed %d of %d files\n", n, len(plan.Renames))
			return err
		},
	}
	cmd.Flags().StringVar(&planPath, "plan", "", "Plan file (.json or .yaml)")
	return cmd
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

func writePlan(path string, plan types.RenamePlan) error {
	var (
		b   []byte
		err error
	)
	if isYAML(path) {
		b, err = yaml.Marshal(plan)
	} else {
		b, err = json.MarshalIndent(plan, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("encode plan: %w", err)
	}
	return os.WriteFile(path, b, 0o644)
}

func readPlan(path string) (types.RenamePlan, error) {
	var plan types.RenamePlan
	b, err := os.ReadFile(path)
	if err != nil {
		return plan, err
	}
	if isYAML(path) {
		err = yaml.Unmarshal(b, &plan)
	} else {
		err = json.Unmarshal(b, &plan)
	}
	if err != nil {
		return plan, fmt.Errorf("parse plan %s: %w", path, err)
	}
	return plan, nil
}
