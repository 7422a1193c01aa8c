package app

import (
	"context"
	"errors"
	"image"
	"testing"

	"github.com/stretchr/testify/require"

	"zonewatch/internal/domain/entity"
)

func TestPersonDetection_FiltersClassAndThreshold(t *testing.T) {
	det := &fakeDetector{detections: []entity.Detection{
		person(0, 0, 10, 10, 0.9),
		person(20, 20, 30, 30, 0.5), // порог включительно
		person(40, 40, 50, 50, 0.49),
		{Class: "car", Box: entity.BoundingBox{X1: 0, Y1: 0, X2: 100, Y2: 100, Confidence: 0.99}},
	}}

	boxes, err := NewPersonDetection(det).Detect(context.Background(), image.NewRGBA(image.Rect(0, 0, 100, 100)), 0.5, nil)
	require.NoError(t, err)
	require.Len(t, boxes, 2)
	require.Equal(t, 0.9, boxes[0].Confidence)
	require.Equal(t, 0.5, boxes[1].Confidence)
}

func TestPersonDetection_RectRegionByCenter(t *testing.T) {
	det := &fakeDetector{detections: []entity.Detection{
		person(0, 0, 20, 20, 0.9),   // центр (10, 10) на границе
		person(0, 0, 100, 100, 0.9), // центр (50, 50) снаружи, хотя рамка пересекает область
		person(12, 12, 18, 18, 0.9), // центр (15, 15) внутри
	}}
	rect := image.Rect(10, 10, 30, 30)

	boxes, err := NewPersonDetection(det).Detect(context.Background(), nil, 0.5, &entity.Region{Rect: &rect})
	require.NoError(t, err)
	require.Len(t, boxes, 2)
	require.Equal(t, [4]int{0, 0, 20, 20}, boxes[0].Box())
	require.Equal(t, [4]int{12, 12, 18, 18}, boxes[1].Box())
}

func TestPersonDetection_PolygonRegionPreferred(t *testing.T) {
	det := &fakeDetector{detections: []entity.Detection{
		person(0, 0, 20, 20, 0.9),       // центр (10, 10)
		person(180, 180, 220, 220, 0.9), // центр (200, 200)
	}}
	rect := image.Rect(0, 0, 50, 50)
	region := &entity.Region{
		Rect:    &rect,
		Polygon: []image.Point{{150, 150}, {250, 150}, {250, 250}, {150, 250}},
	}

	boxes, err := NewPersonDetection(det).Detect(context.Background(), nil, 0.5, region)
	require.NoError(t, err)
	require.Len(t, boxes, 1)
	require.Equal(t, image.Pt(200, 200), boxes[0].Center())
}

func TestPersonDetection_DetectorError(t *testing.T) {
	det := &fakeDetector{detections: []entity.Detection{person(0, 0, 1, 1, 0.9)}, failAfter: 1}
	d := NewPersonDetection(det)

	_, err := d.Detect(context.Background(), nil, 0.5, nil)
	require.NoError(t, err)

	boxes, err := d.Detect(context.Background(), nil, 0.5, nil)
	require.ErrorIs(t, err, entity.ErrDetectorUnavailable)
	require.Nil(t, boxes)
}

func TestPersonDetection_InvalidBoxRejectsFrame(t *testing.T) {
	det := &fakeDetector{detections: []entity.Detection{
		person(0, 0, 10, 10, 0.9),
		person(30, 0, 10, 10, 0.9),
	}}

	boxes, err := NewPersonDetection(det).Detect(context.Background(), nil, 0.5, nil)
	require.True(t, errors.Is(err, entity.ErrDetectorUnavailable))
	require.Nil(t, boxes)
}

func TestPersonDetection_NoDetector(t *testing.T) {
	_, err := NewPersonDetection(nil).Detect(context.Background(), nil, 0.5, nil)
	require.ErrorIs(t, err, entity.ErrDetectorUnavailable)
}
