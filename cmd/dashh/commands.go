package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/cheggaaa/pb/v3"
	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"

	"github.com/templui/dashh/internal/app"
	"github.com/templui/dashh/internal/model"
	"github.com/templui/dashh/internal/result"
	"github.com/templui/dashh/internal/service"
)

func register(c *cli.Context, a *app.App) error {
	email, password, err := credentials(c)
	if err != nil {
		return err
	}

	r := a.Persistence.Register(c.Context, email, password, c.String("name"))
	defer a.Persistence.Logout(c.Context)

	return emit(c, r, func(u model.AuthUser) {
		fmt.Fprintf(c.App.Writer, "Registered %s (%s)\n", u.Email, u.Name)
	})
}

func upload(c *cli.Context, a *app.App) error {
	if c.NArg() == 0 {
		return fmt.Errorf("at least one path is required")
	}

	var files []service.SelectedFile
	for _, path := range c.Args().Slice() {
		file, err := service.FileFromPath(path)
		if err != nil {
			return fmt.Errorf("cannot upload %s: %w", path, err)
		}
		files = append(files, file)
	}

	bar := pb.New(len(files))
	bar.SetWriter(os.Stderr)
	bar.SetTemplate(`{{string . "name"}} {{counters . }} {{bar . }} {{percent . }}`)
	bar.Start()

	prepared := make(map[int]bool)
	pipeline := service.NewUploadPipeline(a.Constraints, func(p service.Progress) {
		bar.Set("name", p.Name)
		if prepared[p.Index] {
			return
		}
		if p.Status == service.StatusCompleted || p.Status == service.StatusError {
			prepared[p.Index] = true
			bar.Increment()
		}
	})

	items, uploaded := pipeline.Run(c.Context, files, a.Persistence)
	bar.Finish()

	failed := len(items) - len(uploaded)
	if c.Bool("json") {
		err := emit(c, result.Ok(uploaded), func([]model.FileRecord) {})
		if err == nil && failed > 0 {
			err = fmt.Errorf("%d files failed", failed)
		}
		return err
	}

	w := tabwriter.NewWriter(c.App.Writer, 0, 0, 2, ' ', 0)
	for _, item := range items {
		switch item.Status {
		case service.StatusError:
			fmt.Fprintf(w, "%s\tfailed\t%s\n", item.Name, item.Error)
		default:
			fmt.Fprintf(w, "%s\tuploaded\t%s\n", item.Name, item.File.ID)
		}
	}
	w.Flush()

	fmt.Fprintf(c.App.Writer, "%d of %d files uploaded\n", len(uploaded), len(items))
	printStats(c.App.Writer, a.Persistence.GetUserStats(c.Context))

	if failed > 0 {
		return fmt.Errorf("%d files failed", failed)
	}
	return nil
}

func list(c *cli.Context, a *app.App) error {
	return emit(c, a.Persistence.GetUserFiles(c.Context), func(files []model.FileRecord) {
		printFiles(c.App.Writer, files)
	})
}

func search(c *cli.Context, a *app.App) error {
	query := strings.Join(c.Args().Slice(), " ")
	return emit(c, a.Persistence.SearchFiles(c.Context, query), func(files []model.FileRecord) {
		printFiles(c.App.Writer, files)
	})
}

func preview(c *cli.Context, a *app.App) error {
	id, err := fileIDArg(c)
	if err != nil {
		return err
	}

	return emit(c, a.Persistence.Preview(c.Context, id, c.Int("lines")), func(p service.Preview) {
		w := c.App.Writer
		fmt.Fprintf(w, "Name:      %s\n", p.Name)
		fmt.Fprintf(w, "Type:      %s (%s)\n", p.MimeType, p.Kind)
		fmt.Fprintf(w, "Size:      %s\n", p.Size)
		fmt.Fprintf(w, "Uploaded:  %s\n", humanize.Time(p.UploadedAt))
		fmt.Fprintf(w, "Modified:  %s\n", humanize.Time(p.LastModified))
		if p.Text != "" {
			fmt.Fprintln(w)
			fmt.Fprint(w, p.Text)
			if p.Truncated {
				fmt.Fprintln(w, "...")
			}
		}
	})
}

func download(c *cli.Context, a *app.App) error {
	id, err := fileIDArg(c)
	if err != nil {
		return err
	}

	file, err := unwrap(a.Persistence.Download(c.Context, id))
	if err != nil {
		return err
	}

	out := c.String("out")
	if out == "" {
		out = filepath.Base(file.Name)
	}

	err = os.WriteFile(out, file.Data, 0o644)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", out, err)
	}

	fmt.Fprintf(c.App.Writer, "Saved %s (%s)\n", out, humanize.IBytes(uint64(len(file.Data))))
	return nil
}

func remove(c *cli.Context, a *app.App) error {
	id, err := fileIDArg(c)
	if err != nil {
		return err
	}

	err = emit(c, a.ExportService.Remove(c.Context, id), func(message string) {
		fmt.Fprintln(c.App.Writer, message)
	})
	if err != nil {
		return err
	}

	if !c.Bool("json") {
		printStats(c.App.Writer, a.Persistence.GetUserStats(c.Context))
	}
	return nil
}

func showStats(c *cli.Context, a *app.App) error {
	r := a.Persistence.GetUserStats(c.Context)
	return emit(c, r, func(model.Stats) {
		printStats(c.App.Writer, r)
	})
}

func showProfile(c *cli.Context, a *app.App) error {
	return emit(c, a.Persistence.GetUserProfile(c.Context), func(p model.ProfileView) {
		printProfile(c.App.Writer, p)
	})
}

func updateProfile(c *cli.Context, a *app.App) error {
	var patch model.ProfilePatch
	if c.IsSet("name") {
		v := c.String("name")
		patch.Name = &v
	}
	if c.IsSet("first-name") {
		v := c.String("first-name")
		patch.FirstName = &v
	}
	if c.IsSet("last-name") {
		v := c.String("last-name")
		patch.LastName = &v
	}

	return emit(c, a.Persistence.UpdateUserProfile(c.Context, patch), func(p model.ProfileView) {
		printProfile(c.App.Writer, p)
	})
}

func reconcile(c *cli.Context, a *app.App) error {
	r := a.Persistence.ReconcileCounters(c.Context)
	return emit(c, r, func(model.Stats) {
		printStats(c.App.Writer, r)
	})
}

func export(c *cli.Context, a *app.App) error {
	return emit(c, a.ExportService.Export(c.Context), func(s service.ExportSummary) {
		w := tabwriter.NewWriter(c.App.Writer, 0, 0, 2, ' ', 0)
		for _, f := range s.Exported {
			fmt.Fprintf(w, "%s\t%s\t%s\n", f.Name, f.Key, f.URL)
		}
		w.Flush()
		fmt.Fprintf(c.App.Writer, "%d exported, %d skipped\n", len(s.Exported), len(s.Skipped))
	})
}

func clearLocal(c *cli.Context) error {
	if c.Bool("all") {
		return withApp(resetLocal)(c)
	}
	return withSession(clearOwnLocal)(c)
}

func resetLocal(c *cli.Context, a *app.App) error {
	err := a.ResetLocal()
	if err != nil {
		return err
	}
	return emit(c, result.Ok(struct{}{}), func(struct{}) {
		fmt.Fprintln(c.App.Writer, "Local store recreated")
	})
}

func clearOwnLocal(c *cli.Context, a *app.App) error {
	return emit(c, a.Persistence.ClearLocal(c.Context), func(struct{}) {
		fmt.Fprintln(c.App.Writer, "Local storage cleared")
	})
}

func fileIDArg(c *cli.Context) (string, error) {
	id := strings.TrimSpace(c.Args().First())
	if id == "" {
		return "", fmt.Errorf("file id is required")
	}
	return id, nil
}

func printFiles(w io.Writer, files []model.FileRecord) {
	if len(files) == 0 {
		fmt.Fprintln(w, "No files")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tTYPE\tSIZE\tUPLOADED")
	for _, f := range files {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			f.ID,
			f.Name,
			f.MimeType,
			humanize.IBytes(uint64(max(f.SizeBytes, 0))),
			humanize.Time(f.UploadedAt),
		)
	}
	tw.Flush()
}

func printStats(w io.Writer, r result.Result[model.Stats]) {
	r.Match(
		func(s model.Stats) {
			fmt.Fprintf(w, "Files: %d  Storage: %s  Today: %d\n",
				s.TotalFiles,
				humanize.IBytes(uint64(max(s.StorageUsedBytes, 0))),
				s.TodayUploads,
			)
		},
		func(f result.Failure) {
			fmt.Fprintf(w, "Stats unavailable: %s\n", f.Message)
		},
	)
}

func printProfile(w io.Writer, p model.ProfileView) {
	fmt.Fprintf(w, "Email:       %s\n", p.Email)
	fmt.Fprintf(w, "Name:        %s\n", p.Name)
	if p.FirstName != "" || p.LastName != "" {
		fmt.Fprintf(w, "Full name:   %s\n", strings.TrimSpace(p.FirstName+" "+p.LastName))
	}
	fmt.Fprintf(w, "Updates:     %d\n", p.ProfileUpdateCount)
	if p.IsFirstLogin {
		fmt.Fprintln(w, "Welcome! Set your name with `dashh profile update --name`.")
	}
}
