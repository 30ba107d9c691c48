package storage

import (
	"encoding/json"
	"errors"

	"janus/internal/model"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

func EncodeRunSummary(s model.RunSummary) ([]byte, error) {
	return json.Marshal(s)
}

func DecodeRunSummary(data []byte) (model.RunSummary, error) {
	var summary model.RunSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return model.RunSummary{}, err
	}
	if err := checkVersion(summary.VersionedRecord); err != nil {
		return model.RunSummary{}, err
	}
	return summary, nil
}

func EncodeEpisodes(episodes []model.EpisodeRecord) ([]byte, error) {
	return json.Marshal(episodes)
}

func DecodeEpisodes(data []byte) ([]model.EpisodeRecord, error) {
	var episodes []model.EpisodeRecord
	if err := json.Unmarshal(data, &episodes); err != nil {
		return nil, err
	}
	for _, episode := range episodes {
		if err := checkVersion(episode.VersionedRecord); err != nil {
			return nil, err
		}
	}
	return episodes, nil
}

func EncodePolicyMetadata(m model.PolicyMetadata) ([]byte, error) {
	return json.Marshal(m)
}

func DecodePolicyMetadata(data []byte) (model.PolicyMetadata, error) {
	var meta model.PolicyMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return model.PolicyMetadata{}, err
	}
	if err := checkVersion(meta.VersionedRecord); err != nil {
		return model.PolicyMetadata{}, err
	}
	return meta, nil
}

func checkVersion(v model.VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return ErrVersionMismatch
	}
	return nil
}

// Stamp sets the current schema and codec versions on a versioned record
// before persistence.
func Stamp(v *model.VersionedRecord) {
	v.SchemaVersion = CurrentSchemaVersion
	v.CodecVersion = CurrentCodecVersion
}
