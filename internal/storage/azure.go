package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/sirupsen/logrus"
)

const azureRequestTimeout = 2 * time.Minute

// AzureStorage uploads run exports to an Azure Blob Storage container
type AzureStorage struct {
	client        *azblob.Client
	accountName   string
	containerName string
	prefix        string
}

// Ensure AzureStorage implements StorageInterface
var _ StorageInterface = (*AzureStorage)(nil)

// NewAzureStorage creates a blob client authenticated with the default
// Azure credential chain (managed identity, CLI, environment).
func NewAzureStorage(accountName, containerName, prefix string) (*AzureStorage, error) {
	if accountName == "" {
		return nil, fmt.Errorf("storage account name is required")
	}
	if containerName == "" {
		return nil, fmt.Errorf("storage container name is required")
	}

	credential, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure credential: %w", err)
	}

	serviceURL := fmt.Sprintf("https://%s.blob.core.windows.net/", accountName)
	client, err := azblob.NewClient(serviceURL, credential, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure blob client: %w", err)
	}

	s := &AzureStorage{
		client:        client,
		accountName:   accountName,
		containerName: containerName,
		prefix:        strings.Trim(prefix, "/"),
	}

	if err := s.ensureContainer(); err != nil {
		return nil, fmt.Errorf("failed to ensure container exists: %w", err)
	}

	return s, nil
}

func (s *AzureStorage) blobName(filename string) string {
	if s.prefix == "" {
		return filename
	}
	return path.Join(s.prefix, filename)
}

func (s *AzureStorage) ensureContainer() error {
	ctx, cancel := context.WithTimeout(context.Background(), azureRequestTimeout)
	defer cancel()

	_, err := s.client.CreateContainer(ctx, s.containerName, nil)
	if err != nil {
		if !strings.Contains(err.Error(), "ContainerAlreadyExists") {
			return fmt.Errorf("failed to create container: %w", err)
		}
		logrus.Debugf("Container %s already exists", s.containerName)
	} else {
		logrus.Infof("Created container %s", s.containerName)
	}

	return nil
}

// Store uploads data as a block blob
func (s *AzureStorage) Store(filename string, data []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), azureRequestTimeout)
	defer cancel()

	name := s.blobName(filename)
	_, err := s.client.UploadBuffer(ctx, s.containerName, name, data, &azblob.UploadBufferOptions{
		BlockSize:   int64(1024 * 1024),
		Concurrency: 3,
	})
	if err != nil {
		return fmt.Errorf("failed to upload blob %s: %w", name, err)
	}

	logrus.Infof("Uploaded %s", s.Location(filename))
	return nil
}

// Retrieve downloads a blob
func (s *AzureStorage) Retrieve(filename string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), azureRequestTimeout)
	defer cancel()

	name := s.blobName(filename)
	response, err := s.client.DownloadStream(ctx, s.containerName, name, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to download blob %s: %w", name, err)
	}
	defer response.Body.Close()

	data, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read blob content: %w", err)
	}

	return data, nil
}

// List returns blob names under prefix, relative to the configured prefix
func (s *AzureStorage) List(prefix string) ([]string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), azureRequestTimeout)
	defer cancel()

	fullPrefix := s.blobName(prefix)
	var names []string
	pager := s.client.NewListBlobsFlatPager(s.containerName, &azblob.ListBlobsFlatOptions{
		Prefix: &fullPrefix,
	})

	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list blobs: %w", err)
		}

		for _, blob := range page.Segment.BlobItems {
			if blob.Name == nil {
				continue
			}
			name := *blob.Name
			if s.prefix != "" {
				name = strings.TrimPrefix(name, s.prefix+"/")
			}
			names = append(names, name)
		}
	}

	return names, nil
}

// Delete removes a blob
func (s *AzureStorage) Delete(filename string) error {
	ctx, cancel := context.WithTimeout(context.Background(), azureRequestTimeout)
	defer cancel()

	name := s.blobName(filename)
	if _, err := s.client.DeleteBlob(ctx, s.containerName, name, nil); err != nil {
		return fmt.Errorf("failed to delete blob %s: %w", name, err)
	}

	logrus.Infof("Deleted %s", s.Location(filename))
	return nil
}

func (s *AzureStorage) Location(filename string) string {
	return fmt.Sprintf("https://%s.blob.core.windows.net/%s/%s", s.accountName, s.containerName, s.blobName(filename))
}
