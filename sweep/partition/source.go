package partition

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/sethgrid/pester"
	log "github.com/sirupsen/logrus"
)

// ~2min total of trying with exponential backoff.
const DefaultHttpTries = 7

type Client interface {
	Do(req *http.Request) (resp *http.Response, err error)
}

func MakePesterClient() *pester.Client {
	client := pester.New()
	client.Backoff = pester.ExponentialBackoff
	client.MaxRetries = DefaultHttpTries
	client.LogHook = func(e pester.ErrEntry) {
		log.Errorf("Retrying corpus fetch after failed attempt: %+v", e)
	}
	return client
}

func isRemote(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// Open returns the corpus at source, a local path or an http(s) URL fetched with client.
func Open(ctx context.Context, source string, client Client) (io.ReadCloser, error) {
	if !isRemote(source) {
		return os.Open(source)
	}
	req, err := http.NewRequest("GET", source, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("fetching corpus %s: %v", source, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("fetching corpus %s: %s", source, resp.Status)
	}
	log.Infof("Streaming corpus from %s", source)
	return resp.Body, nil
}
