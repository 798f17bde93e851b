package recommend

import (
	"fmt"
	"math"
	"sort"

	"giggle-glide/internal/models"

	"github.com/google/uuid"
)

// Collaborative filtering parameters
const (
	// Minimum cosine similarity for a neighbor to count
	SimilarityThreshold = 0.3

	// How many neighbors contribute to collaborative scores
	MaxSimilarUsers = 10
)

// Interaction weights used when aggregating neighbor signals
const (
	weightLike = 1.0
	weightView = 0.3
	weightSkip = -0.5
)

// interactionWeight maps an interaction type to its collaborative weight
func interactionWeight(interactionType string) float64 {
	switch interactionType {
	case models.InteractionLike:
		return weightLike
	case models.InteractionView:
		return weightView
	case models.InteractionSkip:
		return weightSkip
	default:
		return 0
	}
}

// ExploitationScore rates how well a joke's tags match a user's learned
// preferences: the confidence-weighted mean of the user's scores over the
// joke's tags, with unscored tags counting as 0. Untagged jokes and users
// with no preferences at all score 0.
func ExploitationScore(prefs map[uuid.UUID]float64, jokeTags []models.JokeTag) float64 {
	if len(prefs) == 0 {
		return 0
	}
	var weighted, totalConfidence float64
	for _, link := range jokeTags {
		weighted += prefs[link.TagID] * link.Confidence
		totalConfidence += link.Confidence
	}
	if totalConfidence == 0 {
		return 0
	}
	return weighted / totalConfidence
}

// CosineSimilarity compares two users' preference vectors over the tags
// they have in common. Returns 0 when there is no overlap.
func CosineSimilarity(a, b map[uuid.UUID]float64) float64 {
	var dot, normA, normB float64
	for tagID, scoreA := range a {
		scoreB, ok := b[tagID]
		if !ok {
			continue
		}
		dot += scoreA * scoreB
		normA += scoreA * scoreA
		normB += scoreB * scoreB
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// SimilarUser pairs a neighbor with their similarity to the reference user
type SimilarUser struct {
	UserID     uuid.UUID
	Similarity float64
}

// preferenceVector loads a user's tag scores as a map keyed by tag id
func (s *Service) preferenceVector(userID uuid.UUID) (map[uuid.UUID]float64, error) {
	var scores []models.UserTagScore
	if err := s.db.Where("user_id = ?", userID).Find(&scores).Error; err != nil {
		return nil, fmt.Errorf("failed to load preference vector: %w", err)
	}
	vector := make(map[uuid.UUID]float64, len(scores))
	for _, score := range scores {
		vector[score.TagID] = score.Score
	}
	return vector, nil
}

// FindSimilarUsers returns up to MaxSimilarUsers neighbors whose preference
// vectors clear the similarity threshold, most similar first
func (s *Service) FindSimilarUsers(userID uuid.UUID) ([]SimilarUser, error) {
	reference, err := s.preferenceVector(userID)
	if err != nil {
		return nil, err
	}
	if len(reference) == 0 {
		return []SimilarUser{}, nil
	}

	tagIDs := make([]uuid.UUID, 0, len(reference))
	for tagID := range reference {
		tagIDs = append(tagIDs, tagID)
	}

	// Only users sharing at least one scored tag can be similar
	var candidateIDs []uuid.UUID
	err = s.db.Model(&models.UserTagScore{}).
		Distinct("user_id").
		Where("tag_id IN ? AND user_id <> ?", tagIDs, userID).
		Pluck("user_id", &candidateIDs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find candidate neighbors: %w", err)
	}

	neighbors := make([]SimilarUser, 0, len(candidateIDs))
	for _, candidateID := range candidateIDs {
		vector, err := s.preferenceVector(candidateID)
		if err != nil {
			return nil, err
		}
		similarity := CosineSimilarity(reference, vector)
		if similarity >= SimilarityThreshold {
			neighbors = append(neighbors, SimilarUser{UserID: candidateID, Similarity: similarity})
		}
	}

	sort.SliceStable(neighbors, func(i, j int) bool {
		return neighbors[i].Similarity > neighbors[j].Similarity
	})
	if len(neighbors) > MaxSimilarUsers {
		neighbors = neighbors[:MaxSimilarUsers]
	}
	return neighbors, nil
}

// CollaborativeScores aggregates neighbors' interactions into per-joke
// scores: the similarity-weighted mean of interaction weights. Only jokes
// at least one neighbor touched appear in the result.
func (s *Service) CollaborativeScores(neighbors []SimilarUser) (map[uuid.UUID]float64, error) {
	if len(neighbors) == 0 {
		return map[uuid.UUID]float64{}, nil
	}

	similarity := make(map[uuid.UUID]float64, len(neighbors))
	neighborIDs := make([]uuid.UUID, len(neighbors))
	for i, neighbor := range neighbors {
		similarity[neighbor.UserID] = neighbor.Similarity
		neighborIDs[i] = neighbor.UserID
	}

	var interactions []models.JokeInteraction
	err := s.db.Where("user_id IN ?", neighborIDs).Find(&interactions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load neighbor interactions: %w", err)
	}

	weighted := make(map[uuid.UUID]float64)
	simTotal := make(map[uuid.UUID]float64)
	for _, interaction := range interactions {
		weight := interactionWeight(interaction.InteractionType)
		if weight == 0 {
			continue
		}
		sim := similarity[interaction.UserID]
		weighted[interaction.JokeID] += sim * weight
		simTotal[interaction.JokeID] += sim
	}

	scores := make(map[uuid.UUID]float64, len(weighted))
	for jokeID, total := range weighted {
		if simTotal[jokeID] > 0 {
			scores[jokeID] = total / simTotal[jokeID]
		}
	}
	return scores, nil
}
