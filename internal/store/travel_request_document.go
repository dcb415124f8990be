package store

import (
	"context"
	"time"

	"github.com/viajesoeste/apiserver/internal/storage"
	"github.com/viajesoeste/apiserver/types"
)

const (
	travelRequestsDocumentKey = "travel-requests.json"
	initialTravelRequestID    = 1000
)

type travelRequestsFile struct {
	TravelRequests []types.TravelRequest `json:"travelRequests"`
	LastID         int                   `json:"lastId"`
}

// DocumentTravelRequestRepository persists travel requests in a single JSON
// document that also holds the last assigned id.
type DocumentTravelRequestRepository struct {
	doc *document[travelRequestsFile]
}

func NewDocumentTravelRequestRepository(s *storage.Storage) *DocumentTravelRequestRepository {
	return &DocumentTravelRequestRepository{
		doc: newDocument(s, travelRequestsDocumentKey, func() travelRequestsFile {
			return travelRequestsFile{TravelRequests: []types.TravelRequest{}, LastID: initialTravelRequestID}
		}),
	}
}

func (r *DocumentTravelRequestRepository) List(ctx context.Context) ([]types.TravelRequest, error) {
	file, err := r.doc.load(ctx)
	if err != nil {
		return nil, err
	}
	return file.TravelRequests, nil
}

func (r *DocumentTravelRequestRepository) Get(ctx context.Context, id int) (types.TravelRequest, error) {
	file, err := r.doc.load(ctx)
	if err != nil {
		return types.TravelRequest{}, err
	}
	for _, req := range file.TravelRequests {
		if req.ID == id {
			return req, nil
		}
	}
	return types.TravelRequest{}, ErrNotFound
}

// ListByClientDNI returns the requests whose client DNI matches exactly.
func (r *DocumentTravelRequestRepository) ListByClientDNI(ctx context.Context, dni string) ([]types.TravelRequest, error) {
	file, err := r.doc.load(ctx)
	if err != nil {
		return nil, err
	}
	matches := []types.TravelRequest{}
	for _, req := range file.TravelRequests {
		if req.ClientDNI == dni {
			matches = append(matches, req)
		}
	}
	return matches, nil
}

// Create assigns the next sequential id and the timestamps.
func (r *DocumentTravelRequestRepository) Create(ctx context.Context, req types.TravelRequest) (types.TravelRequest, error) {
	file, err := r.doc.load(ctx)
	if err != nil {
		return types.TravelRequest{}, err
	}

	now := time.Now().UTC()
	file.LastID++
	req.ID = file.LastID
	req.CreatedAt = now
	req.UpdatedAt = now

	file.TravelRequests = append(file.TravelRequests, req)
	if err := r.doc.save(ctx, file); err != nil {
		return types.TravelRequest{}, err
	}
	return req, nil
}

func (r *DocumentTravelRequestRepository) Update(ctx context.Context, req types.TravelRequest) (types.TravelRequest, error) {
	file, err := r.doc.load(ctx)
	if err != nil {
		return types.TravelRequest{}, err
	}

	for i := range file.TravelRequests {
		if file.TravelRequests[i].ID != req.ID {
			continue
		}
		req.CreatedAt = file.TravelRequests[i].CreatedAt
		req.UpdatedAt = time.Now().UTC()
		file.TravelRequests[i] = req
		if err := r.doc.save(ctx, file); err != nil {
			return types.TravelRequest{}, err
		}
		return req, nil
	}
	return types.TravelRequest{}, ErrNotFound
}

// Delete removes the request. The last assigned id is kept so ids are never
// reused.
func (r *DocumentTravelRequestRepository) Delete(ctx context.Context, id int) error {
	file, err := r.doc.load(ctx)
	if err != nil {
		return err
	}

	for i := range file.TravelRequests {
		if file.TravelRequests[i].ID == id {
			file.TravelRequests = append(file.TravelRequests[:i], file.TravelRequests[i+1:]...)
			return r.doc.save(ctx, file)
		}
	}
	return ErrNotFound
}
