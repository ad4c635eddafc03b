package spatial

import "math"

// Mat4 is a 4x4 matrix stored in row-major order, using the row-vector
// convention (v' = v * M) with translation held in the last row. This
// matches the convention the quaternion-to-matrix conversion in
// quaternion.go produces and the one the surrounding renderer/camera code expects.
type Mat4 [16]float32

// Mat3 is the top-left 3x3 rotation/scale block of a Mat4.
type Mat3 [9]float32

// Identity4 returns the 4x4 identity matrix.
func Identity4() Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Mat3 extracts the top-left 3x3 matrix from a 4x4 matrix.
func (m Mat4) Mat3() Mat3 {
	return Mat3{
		m[0], m[1], m[2],
		m[4], m[5], m[6],
		m[8], m[9], m[10],
	}
}

// Mul multiplies two row-vector-convention 4x4 matrices (m * other).
func (m Mat4) Mul(other Mat4) Mat4 {
	var out Mat4
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			var sum float32
			for k := 0; k < 4; k++ {
				sum += m[row*4+k] * other[k*4+col]
			}
			out[row*4+col] = sum
		}
	}
	return out
}

// Transpose returns the transpose of m.
func (m Mat4) Transpose() Mat4 {
	var out Mat4
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			out[col*4+row] = m[row*4+col]
		}
	}
	return out
}

// Inv returns the inverse of m via Gauss-Jordan elimination with partial
// pivoting. Mirrors the teacher's `ProjMat.Mul4(ViewMat).Inv()` call shape;
// like that precedent, it does not guard against a singular matrix, so an
// m with zero determinant yields a result with Inf/NaN entries rather than
// an error.
func (m Mat4) Inv() Mat4 {
	var a [4][8]float32
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			a[row][col] = m[row*4+col]
		}
		a[row][4+row] = 1
	}

	for col := 0; col < 4; col++ {
		pivot := col
		pivotMag := float32(math.Abs(float64(a[col][col])))
		for row := col + 1; row < 4; row++ {
			mag := float32(math.Abs(float64(a[row][col])))
			if mag > pivotMag {
				pivot, pivotMag = row, mag
			}
		}
		if pivot != col {
			a[col], a[pivot] = a[pivot], a[col]
		}

		d := a[col][col]
		for c := 0; c < 8; c++ {
			a[col][c] /= d
		}
		for row := 0; row < 4; row++ {
			if row == col {
				continue
			}
			f := a[row][col]
			for c := 0; c < 8; c++ {
				a[row][c] -= f * a[col][c]
			}
		}
	}

	var out Mat4
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			out[row*4+col] = a[row][4+col]
		}
	}
	return out
}

// TransformPoint applies m to v, treating it as a homogeneous coordinate
// with w=1, and perspective-divides by the resulting w. Mirrors the
// teacher's camera code, which does the same Mul4x1-then-divide-by-w-then-
// Vec3 sequence to turn clip-space corners back into world-space rays.
func (m Mat4) TransformPoint(v Vec3) Vec3 {
	x := v[0]*m[0] + v[1]*m[4] + v[2]*m[8] + m[12]
	y := v[0]*m[1] + v[1]*m[5] + v[2]*m[9] + m[13]
	z := v[0]*m[2] + v[1]*m[6] + v[2]*m[10] + m[14]
	w := v[0]*m[3] + v[1]*m[7] + v[2]*m[11] + m[15]
	if w == 0 {
		w = 1
	}
	invW := 1 / w
	return Vec3{x * invW, y * invW, z * invW}
}

// Translation returns a translation matrix with t in the last row, matching
// the row-vector convention used throughout this package.
func Translation(t Vec3) Mat4 {
	m := Identity4()
	m[12], m[13], m[14] = t[0], t[1], t[2]
	return m
}

// Perspective builds a right-handed perspective projection matrix for the
// row-vector convention (fovY in radians).
func Perspective(fovY, aspect, near, far float32) Mat4 {
	f := float32(1.0) / float32(math.Tan(float64(fovY/2)))
	var m Mat4
	m[0] = f / aspect
	m[5] = f
	m[10] = (far + near) / (near - far)
	m[11] = -1
	m[14] = (2 * far * near) / (near - far)
	return m
}

// Orthographic builds a right-handed orthographic projection matrix for the
// row-vector convention.
func Orthographic(left, right, bottom, top, near, far float32) Mat4 {
	m := Identity4()
	m[0] = 2 / (right - left)
	m[5] = 2 / (top - bottom)
	m[10] = -2 / (far - near)
	m[12] = -(right + left) / (right - left)
	m[13] = -(top + bottom) / (top - bottom)
	m[14] = -(far + near) / (far - near)
	return m
}
