// Package vision provides normalized cross-correlation template matching
// and the landmark templates used by the locators.
package vision

import (
	"jumpbot/pkg/geometry"

	"gocv.io/x/gocv"
)

// Match runs TM_CCOEFF_NORMED template matching of tpl over img and takes
// the global maximum. The returned location is the top-left corner of the
// best window; it is NotFound when the best score is below threshold or the
// template does not fit inside img. The score is returned either way.
func Match(img, tpl gocv.Mat, threshold float64) (geometry.OptPoint, float64) {
	if img.Empty() || tpl.Empty() {
		return geometry.NotFound, 0
	}
	if tpl.Rows() > img.Rows() || tpl.Cols() > img.Cols() {
		return geometry.NotFound, 0
	}

	result := gocv.NewMat()
	defer result.Close()
	mask := gocv.NewMat()
	defer mask.Close()

	gocv.MatchTemplate(img, tpl, &result, gocv.TmCcoeffNormed, mask)
	_, maxVal, _, maxLoc := gocv.MinMaxLoc(result)

	score := float64(maxVal)
	if score < threshold {
		return geometry.NotFound, score
	}
	return geometry.Found(maxLoc.X, maxLoc.Y), score
}
