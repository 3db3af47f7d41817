package mapper

import (
	"mindstorm-be/internal/entity"
	"mindstorm-be/internal/model"

	"gorm.io/datatypes"
)

type SummaryMapper struct{}

func NewSummaryMapper() *SummaryMapper {
	return &SummaryMapper{}
}

func (m *SummaryMapper) ToEntity(s *model.SessionSummary) *entity.SessionSummary {
	if s == nil {
		return nil
	}
	return &entity.SessionSummary{
		Id:              s.Id,
		SessionId:       s.SessionId,
		Summary:         s.Summary,
		Insights:        []string(s.Insights),
		Ideas:           []string(s.Ideas),
		ActionItems:     []string(s.ActionItems),
		SnapshotURL:     s.SnapshotURL,
		IllustrationURL: s.IllustrationURL,
		CreatedAt:       s.CreatedAt,
	}
}

func (m *SummaryMapper) ToModel(s *entity.SessionSummary) *model.SessionSummary {
	if s == nil {
		return nil
	}
	return &model.SessionSummary{
		Id:              s.Id,
		SessionId:       s.SessionId,
		Summary:         s.Summary,
		Insights:        datatypes.NewJSONSlice(nonNil(s.Insights)),
		Ideas:           datatypes.NewJSONSlice(nonNil(s.Ideas)),
		ActionItems:     datatypes.NewJSONSlice(nonNil(s.ActionItems)),
		SnapshotURL:     s.SnapshotURL,
		IllustrationURL: s.IllustrationURL,
		CreatedAt:       s.CreatedAt,
	}
}

func nonNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}
