package repository

import (
	"encoding/json"
	"fmt"

	"github.com/lewtec/rotulador-editor/internal/domain"
	"github.com/lewtec/rotulador-editor/internal/renderer"
)

// annotationDoc is the stored form of an annotation and its children.
// Payloads stay raw until the renderer of their type decodes them.
type annotationDoc struct {
	ID                  string                  `json:"id"`
	Type                string                  `json:"type"`
	ClassID             int64                   `json:"class_id"`
	ZIndex              int                     `json:"z_index"`
	Kind                domain.Kind             `json:"kind"`
	Data                json.RawMessage         `json:"data,omitempty"`
	Video               *videoDoc               `json:"video,omitempty"`
	SubAnnotations      []annotationDoc         `json:"sub_annotations,omitempty"`
	VideoSubAnnotations map[int][]annotationDoc `json:"video_sub_annotations,omitempty"`
}

type videoDoc struct {
	Frames       map[int]json.RawMessage `json:"frames"`
	Segments     []domain.Segment        `json:"segments"`
	Interpolated bool                    `json:"interpolated"`
}

func encodeAnnotation(a *domain.Annotation) (annotationDoc, error) {
	doc := annotationDoc{ID: a.ID, Type: a.Type, ClassID: a.ClassID, ZIndex: a.ZIndex, Kind: a.Kind}
	var err error
	if a.Data != nil {
		if doc.Data, err = json.Marshal(a.Data); err != nil {
			return doc, fmt.Errorf("while encoding data of %s: %w", a.ID, err)
		}
	}
	if a.Video != nil {
		doc.Video = &videoDoc{
			Frames:       make(map[int]json.RawMessage, len(a.Video.Frames)),
			Segments:     a.Video.Segments,
			Interpolated: a.Video.Interpolated,
		}
		for k, d := range a.Video.Frames {
			if doc.Video.Frames[k], err = json.Marshal(d); err != nil {
				return doc, fmt.Errorf("while encoding keyframe %d of %s: %w", k, a.ID, err)
			}
		}
	}
	for _, sub := range a.SubAnnotations {
		sd, err := encodeAnnotation(sub)
		if err != nil {
			return doc, err
		}
		doc.SubAnnotations = append(doc.SubAnnotations, sd)
	}
	if a.VideoSubAnnotations != nil && len(a.VideoSubAnnotations.Frames) > 0 {
		doc.VideoSubAnnotations = make(map[int][]annotationDoc, len(a.VideoSubAnnotations.Frames))
		for k, list := range a.VideoSubAnnotations.Frames {
			docs := []annotationDoc{}
			for _, sub := range list {
				sd, err := encodeAnnotation(sub)
				if err != nil {
					return doc, err
				}
				docs = append(docs, sd)
			}
			doc.VideoSubAnnotations[k] = docs
		}
	}
	return doc, nil
}

func decodeAnnotation(reg *renderer.Registry, doc annotationDoc) (*domain.Annotation, error) {
	a := &domain.Annotation{ID: doc.ID, Type: doc.Type, ClassID: doc.ClassID, ZIndex: doc.ZIndex, Kind: doc.Kind}
	var err error
	if len(doc.Data) > 0 {
		if a.Data, err = reg.Decode(doc.Type, doc.Data); err != nil {
			return nil, fmt.Errorf("while decoding data of %s: %w", doc.ID, err)
		}
	}
	if doc.Video != nil {
		a.Video = &domain.VideoAnnotationData{
			Frames:       make(map[int]domain.Data, len(doc.Video.Frames)),
			Segments:     doc.Video.Segments,
			Interpolated: doc.Video.Interpolated,
		}
		for k, raw := range doc.Video.Frames {
			if a.Video.Frames[k], err = reg.Decode(doc.Type, raw); err != nil {
				return nil, fmt.Errorf("while decoding keyframe %d of %s: %w", k, doc.ID, err)
			}
		}
	}
	for _, sd := range doc.SubAnnotations {
		sub, err := decodeAnnotation(reg, sd)
		if err != nil {
			return nil, err
		}
		a.SubAnnotations = append(a.SubAnnotations, sub)
	}
	if a.Kind == domain.KindVideo {
		a.VideoSubAnnotations = domain.NewVideoSubAnnotations()
		for k, docs := range doc.VideoSubAnnotations {
			list := []*domain.Annotation{}
			for _, sd := range docs {
				sub, err := decodeAnnotation(reg, sd)
				if err != nil {
					return nil, err
				}
				list = append(list, sub)
			}
			a.VideoSubAnnotations.Frames[k] = list
		}
	}
	return a, nil
}
