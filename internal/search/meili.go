package search

import (
	"encoding/json"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	meili "github.com/meilisearch/meilisearch-go"
)

const idxPosts = "forum_posts"

// Meili implements Ranker and Indexer via Meilisearch.
type Meili struct {
	client    meili.ServiceManager
	healthy   atomic.Bool
	onRecover atomic.Pointer[func()]
	done      chan struct{}
}

// NewMeili creates a Meilisearch client and configures the posts index. An
// unreachable server is not an error; the health loop keeps probing it.
func NewMeili(url, apiKey string) *Meili {
	client := meili.New(url, meili.WithAPIKey(apiKey))

	m := &Meili{
		client: client,
		done:   make(chan struct{}),
	}

	if _, err := client.Health(); err != nil {
		log.Printf("search: meilisearch unavailable at %s: %v", url, err)
		m.healthy.Store(false)
	} else {
		m.healthy.Store(true)
		m.configureIndex()
	}

	go m.healthLoop()
	return m
}

func (m *Meili) configureIndex() {
	if _, err := m.client.CreateIndex(&meili.IndexConfig{
		Uid:        idxPosts,
		PrimaryKey: "id",
	}); err != nil {
		log.Printf("search: create index %s (may already exist): %v", idxPosts, err)
	}

	index := m.client.Index(idxPosts)
	filterable := []interface{}{"isAnswered", "authorId"}
	if _, err := index.UpdateFilterableAttributes(&filterable); err != nil {
		log.Printf("search: update filterable attrs for %s: %v", idxPosts, err)
	}
	searchable := []string{"title", "content"}
	if _, err := index.UpdateSearchableAttributes(&searchable); err != nil {
		log.Printf("search: update searchable attrs for %s: %v", idxPosts, err)
	}
}

func (m *Meili) healthLoop() {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			_, err := m.client.Health()
			wasHealthy := m.healthy.Load()
			m.healthy.Store(err == nil)
			if err == nil && !wasHealthy {
				log.Println("search: meilisearch recovered, reconfiguring index")
				m.configureIndex()
				if fn := m.onRecover.Load(); fn != nil {
					(*fn)()
				}
			}
		}
	}
}

// OnRecover registers fn to run each time the server comes back after an outage.
func (m *Meili) OnRecover(fn func()) {
	m.onRecover.Store(&fn)
}

func (m *Meili) Close() {
	close(m.done)
}

func (m *Meili) Healthy() bool {
	return m.healthy.Load()
}

func (m *Meili) Rank(q Query) ([]Hit, error) {
	if !m.healthy.Load() {
		return nil, fmt.Errorf("meilisearch unhealthy")
	}

	sr := &meili.SearchRequest{
		IndexUID:             idxPosts,
		Query:                q.Text,
		Limit:                int64(q.limit()),
		AttributesToRetrieve: []string{"id"},
		ShowRankingScore:     true,
	}
	if q.UnansweredOnly {
		sr.Filter = []string{"isAnswered = false"}
	}

	resp, err := m.client.MultiSearch(&meili.MultiSearchRequest{
		Queries: []*meili.SearchRequest{sr},
	})
	if err != nil {
		m.healthy.Store(false)
		return nil, fmt.Errorf("meilisearch multi-search: %w", err)
	}

	var hits []Hit
	for _, res := range resp.Results {
		for _, raw := range res.Hits {
			if hit, ok := decodeHit(raw); ok {
				hits = append(hits, hit)
			}
		}
	}
	return hits, nil
}

func decodeHit(hit meili.Hit) (Hit, bool) {
	var idStr string
	if err := json.Unmarshal(hit["id"], &idStr); err != nil {
		return Hit{}, false
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return Hit{}, false
	}

	var score float64
	if raw, ok := hit["_rankingScore"]; ok {
		if err := json.Unmarshal(raw, &score); err != nil {
			log.Printf("search: bad ranking score for %s: %v", id, err)
			return Hit{}, false
		}
	}
	return Hit{ID: id, Score: score}, true
}

func (m *Meili) IndexPost(p PostRecord) error {
	_, err := m.client.Index(idxPosts).AddDocuments([]PostRecord{p}, nil)
	return err
}

func (m *Meili) ReplaceAll(ps []PostRecord) error {
	index := m.client.Index(idxPosts)
	if _, err := index.DeleteAllDocuments(nil); err != nil {
		return err
	}
	if len(ps) == 0 {
		return nil
	}
	_, err := index.AddDocuments(ps, nil)
	return err
}

func (m *Meili) DeletePost(id string) error {
	_, err := m.client.Index(idxPosts).DeleteDocument(id, nil)
	return err
}
