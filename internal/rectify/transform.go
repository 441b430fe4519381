package rectify

import (
	"fmt"
	"image"
	"math"

	"plate-tracker/pkg/geometry"

	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/mat"
)

// fullRank is the rank of the 8-unknown DLT system for four correspondences.
const fullRank = 8

// rankTolerance is the relative singular value cutoff used by the fallback solve.
const rankTolerance = 1e-10

// Rectified holds the output of one rectification.
type Rectified struct {
	Image      gocv.Mat
	Homography geometry.Homography
	Status     CalibrationStatus
}

// Close releases the rectified image.
func (r *Rectified) Close() error {
	return r.Image.Close()
}

// ComputeHomography computes the projective transform mapping each src point
// onto the corresponding dst point. The second result is false when the
// correspondences were degenerate (e.g. duplicate (0,0) defaults); a
// minimum-norm transform is still returned so callers can keep going.
// An error is returned only for non-finite input.
func ComputeHomography(src, dst [4]geometry.Point2D) (geometry.Homography, bool, error) {
	for i := 0; i < 4; i++ {
		if !src[i].IsFinite() || !dst[i].IsFinite() {
			return geometry.Homography{}, false, fmt.Errorf("non-finite correspondence %d: %v -> %v", i, src[i], dst[i])
		}
	}

	// Build matrix equation with h8 fixed to 1:
	// x' = (h0*x + h1*y + h2) / (h6*x + h7*y + 1)
	// y' = (h3*x + h4*y + h5) / (h6*x + h7*y + 1)
	A := mat.NewDense(8, 8, nil)
	B := mat.NewVecDense(8, nil)

	for i := 0; i < 4; i++ {
		x, y := src[i].X, src[i].Y
		xp, yp := dst[i].X, dst[i].Y

		A.Set(i*2, 0, x)
		A.Set(i*2, 1, y)
		A.Set(i*2, 2, 1)
		A.Set(i*2, 6, -x*xp)
		A.Set(i*2, 7, -y*xp)
		B.SetVec(i*2, xp)

		A.Set(i*2+1, 3, x)
		A.Set(i*2+1, 4, y)
		A.Set(i*2+1, 5, 1)
		A.Set(i*2+1, 6, -x*yp)
		A.Set(i*2+1, 7, -y*yp)
		B.SetVec(i*2+1, yp)
	}

	var params mat.VecDense
	if err := params.SolveVec(A, B); err == nil {
		return toHomography(&params), true, nil
	}

	// Singular system: take the least-squares minimum-norm solution instead.
	var svd mat.SVD
	if !svd.Factorize(A, mat.SVDFull) {
		return geometry.IdentityHomography(), false, nil
	}
	rank := svd.Rank(rankTolerance)
	if rank == 0 {
		// All-zero system: every coefficient except h8 is zero.
		return geometry.Homography{8: 1}, false, nil
	}
	svd.SolveVecTo(&params, B, rank)
	return toHomography(&params), rank == fullRank, nil
}

func toHomography(params *mat.VecDense) geometry.Homography {
	var h geometry.Homography
	for i := 0; i < 8; i++ {
		h[i] = params.AtVec(i)
	}
	h[8] = 1
	return h
}

// Rectify warps the frame so the detected corners land on the canonical
// square. Degraded corner sets are accepted; the returned status tells the
// caller whether the result can be trusted.
func Rectify(frame gocv.Mat, corners CornerSet, canon Canonical) (*Rectified, error) {
	if frame.Empty() {
		return nil, fmt.Errorf("empty frame")
	}

	h, exact, err := ComputeHomography(corners.Points, canon.Destination())
	if err != nil {
		return nil, fmt.Errorf("failed to compute homography: %w", err)
	}

	status := CalibrationOK
	if !exact || !corners.Complete() || !geometry.IsConvex(corners.Points[:]) {
		status = CalibrationDegraded
	}

	return &Rectified{
		Image:      WarpPerspective(frame, h, canon.FrameSize, canon.FrameSize),
		Homography: h,
		Status:     status,
	}, nil
}

// WarpPerspective applies a projective transform to an image.
func WarpPerspective(src gocv.Mat, h geometry.Homography, width, height int) gocv.Mat {
	// Create transform matrix for GoCV
	transformMat := gocv.NewMatWithSize(3, 3, gocv.MatTypeCV64F)
	defer transformMat.Close()
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			transformMat.SetDoubleAt(r, c, h[r*3+c])
		}
	}

	dst := gocv.NewMat()
	gocv.WarpPerspective(src, &dst, transformMat, image.Point{width, height})

	return dst
}

// ReprojectionError returns the mean distance between the transformed src
// points and their dst targets. Points mapping to infinity count as +Inf.
func ReprojectionError(h geometry.Homography, src, dst [4]geometry.Point2D) float64 {
	var total float64
	for i := range src {
		p, ok := h.Apply(src[i])
		if !ok {
			return math.Inf(1)
		}
		total += p.Distance(dst[i])
	}
	return total / float64(len(src))
}
