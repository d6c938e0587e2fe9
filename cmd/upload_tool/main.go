package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"diagnostics-dashboard/catalog"
	"diagnostics-dashboard/dicommeta"
	"diagnostics-dashboard/objstore"
	"diagnostics-dashboard/upload"
)

/*

 go run ./cmd/upload_tool \
 -action=upload \
 -service=lung-cancer \
 -bucket=my-project.appspot.com \
 scan1.dcm scan2.dcm

 go run ./cmd/upload_tool \
 -action=list \
 -service=lung-cancer \
 -bucket=my-project.appspot.com

 go run ./cmd/upload_tool \
 -action=inspect \
 scan1.dcm

*/

func main() {
	var (
		action    = flag.String("action", "upload", "action: upload|list|inspect")
		serviceID = flag.String("service", "", "catalog service id")
		projectID = flag.String("project", os.Getenv("PROJECT_ID"), "Firebase project ID")
		bucket    = flag.String("bucket", os.Getenv("STORAGE_BUCKET"), "Storage bucket, e.g. my-project.appspot.com")
		creds     = flag.String("credentials", os.Getenv("GOOGLE_CREDENTIALS_FILE"), "service account JSON; ADC when empty")
		dryRun    = flag.Bool("dry-run", false, "write to an in-memory store instead of the bucket")
	)
	flag.Parse()

	ctx := context.Background()
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	if *action == "inspect" {
		if flag.NArg() == 0 {
			logger.Fatal().Msg("inspect needs at least one file")
		}
		for _, path := range flag.Args() {
			if err := inspect(path); err != nil {
				logger.Fatal().Err(err).Str("file", path).Msg("inspect")
			}
		}
		return
	}

	svc, ok := catalog.Lookup(*serviceID)
	if !ok {
		logger.Fatal().Str("service", *serviceID).Msg("-service must be one of the catalog ids")
	}

	var store objstore.Store
	if *dryRun {
		store = objstore.NewMemoryStore()
	} else {
		if *bucket == "" {
			logger.Fatal().Msg("-bucket (or STORAGE_BUCKET) is required unless -dry-run is set")
		}
		bs, err := objstore.OpenFirebaseBucket(ctx, objstore.FirebaseOptions{
			ProjectID:       *projectID,
			Bucket:          *bucket,
			CredentialsFile: *creds,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("OpenFirebaseBucket")
		}
		store = bs
	}

	switch *action {
	case "upload":
		if !svc.AcceptsFiles() {
			logger.Fatal().Str("service", svc.ID).Str("input", svc.InputDescription()).Msg("service does not accept files")
		}
		if flag.NArg() == 0 {
			logger.Fatal().Msg("upload needs at least one file")
		}
		u := upload.NewUploader(store, nil, nil, logger)

		n, err := u.Upload(ctx, svc.ID, localFiles(flag.Args()))
		fmt.Printf("%s: %s\n", n.Title, n.Description)
		if err != nil {
			os.Exit(1)
		}
		if *dryRun {
			printObjects(ctx, logger, store, svc.ID)
		}
	case "list":
		printObjects(ctx, logger, store, svc.ID)
	default:
		logger.Fatal().Str("action", *action).Msg("unknown action")
	}
}

// localFiles maps paths to upload files named by their base name, as a
// browser file picker would report them.
func localFiles(paths []string) []upload.File {
	files := make([]upload.File, 0, len(paths))
	for _, p := range paths {
		path := p
		var size int64
		if st, err := os.Stat(path); err == nil {
			size = st.Size()
		}
		files = append(files, upload.File{
			Name:        filepath.Base(path),
			ContentType: mime.TypeByExtension(strings.ToLower(filepath.Ext(path))),
			Size:        size,
			Open:        func() (io.ReadCloser, error) { return os.Open(path) },
		})
	}
	return files
}

func printObjects(ctx context.Context, logger zerolog.Logger, store objstore.Store, serviceID string) {
	objects, err := store.List(ctx, objstore.ServicePrefix(serviceID))
	if err != nil {
		logger.Fatal().Err(err).Msg("List")
	}
	for _, o := range objects {
		fmt.Printf("%10d  %s\n", o.Size, o.Path)
	}
}

func inspect(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return err
	}
	info, err := dicommeta.Inspect(f, st.Size())
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(info.Metadata())
}
