package artifact

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
)

const defaultFetchTimeout = 75 * time.Second

// BlobUploader is the subset of the Azure blob client used by the store.
type BlobUploader interface {
	UploadStream(ctx context.Context, containerName string, blobName string, body io.Reader, o *azblob.UploadStreamOptions) (azblob.UploadStreamResponse, error)
}

// NewBlobServiceClient dials blob storage from a connection string.
func NewBlobServiceClient(connectionString string) (*azblob.Client, error) {
	return azblob.NewClientFromConnectionString(connectionString, nil)
}

// StoreConfig describes the dependencies of the artifact store.
type StoreConfig struct {
	Uploader   BlobUploader
	Container  string
	HTTPClient *http.Client
}

// Store copies transient generated images into durable blob storage.
type Store struct {
	uploader   BlobUploader
	container  string
	httpClient *http.Client
}

// NewStore constructs the artifact store.
func NewStore(cfg StoreConfig) (*Store, error) {
	if cfg.Uploader == nil {
		return nil, fmt.Errorf("artifact: blob uploader required")
	}
	if strings.TrimSpace(cfg.Container) == "" {
		return nil, fmt.Errorf("artifact: container name required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultFetchTimeout}
	}
	return &Store{
		uploader:   cfg.Uploader,
		container:  cfg.Container,
		httpClient: httpClient,
	}, nil
}

// StoreFromURL streams the image behind sourceURL into blob storage under the
// given name. The body is piped straight into the upload; the content length
// is unknown to the service and the upload chunks accordingly. Either the
// named blob exists and is readable afterwards, or an error is returned and
// nothing references the name.
func (s *Store) StoreFromURL(ctx context.Context, sourceURL, name string) error {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return fmt.Errorf("artifact: building image fetch: %w", err)
	}

	response, err := s.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("artifact: fetching image: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode > 299 {
		return fmt.Errorf("artifact: image fetch returned status %d", response.StatusCode)
	}

	if _, err := s.uploader.UploadStream(ctx, s.container, name, response.Body, nil); err != nil {
		return fmt.Errorf("artifact: uploading blob %q: %w", name, err)
	}
	return nil
}
