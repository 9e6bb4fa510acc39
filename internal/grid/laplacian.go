package grid

import "github.com/san-kum/helixwave/internal/dynamo"

// Laplacian writes the discrete ∇²psi into out. Both fields must be shaped like the grid.
func (g *Grid) Laplacian(psi, out dynamo.Field) {
	if g.spec.Stencil == NinePoint {
		g.laplacian9(psi, out)
		return
	}
	g.laplacian5(psi, out)
}

func (g *Grid) laplacian5(psi, out dynamo.Field) {
	nx, ny := g.spec.NX, g.spec.NY
	ix2, iy2 := 1/(g.dx*g.dx), 1/(g.dy*g.dy)
	p := psi.Data

	for i := 0; i < nx; i++ {
		interiorRow := i > 0 && i < nx-1
		for j := 0; j < ny; j++ {
			k := i*ny + j
			c := p[k]
			if interiorRow && j > 0 && j < ny-1 {
				out.Data[k] = (p[k+ny]-2*c+p[k-ny])*ix2 + (p[k+1]-2*c+p[k-1])*iy2
				continue
			}
			n := g.ghost(psi, i+1, j)
			s := g.ghost(psi, i-1, j)
			e := g.ghost(psi, i, j+1)
			w := g.ghost(psi, i, j-1)
			out.Data[k] = (n-2*c+s)*ix2 + (e-2*c+w)*iy2
		}
	}
}

// laplacian9 is the isotropic stencil (4·edges + corners − 20·centre)/(6h²).
func (g *Grid) laplacian9(psi, out dynamo.Field) {
	nx, ny := g.spec.NX, g.spec.NY
	inv := 1 / (6 * g.dx * g.dx)
	p := psi.Data

	for i := 0; i < nx; i++ {
		interiorRow := i > 0 && i < nx-1
		for j := 0; j < ny; j++ {
			k := i*ny + j
			if interiorRow && j > 0 && j < ny-1 {
				edges := p[k+ny] + p[k-ny] + p[k+1] + p[k-1]
				corners := p[k+ny+1] + p[k+ny-1] + p[k-ny+1] + p[k-ny-1]
				out.Data[k] = (4*edges + corners - 20*p[k]) * inv
				continue
			}
			edges := g.ghost(psi, i+1, j) + g.ghost(psi, i-1, j) + g.ghost(psi, i, j+1) + g.ghost(psi, i, j-1)
			corners := g.ghost(psi, i+1, j+1) + g.ghost(psi, i+1, j-1) + g.ghost(psi, i-1, j+1) + g.ghost(psi, i-1, j-1)
			out.Data[k] = (4*edges + corners - 20*p[k]) * inv
		}
	}
}

// ghost reads psi at (i, j), resolving out-of-range indices through the boundary rule.
func (g *Grid) ghost(psi dynamo.Field, i, j int) float64 {
	nx, ny := g.spec.NX, g.spec.NY
	if i >= 0 && i < nx && j >= 0 && j < ny {
		return psi.Data[i*ny+j]
	}
	switch g.spec.Boundary {
	case Fixed:
		return 0
	case Periodic:
		i = (i%nx + nx) % nx
		j = (j%ny + ny) % ny
	default:
		i = mirror(i, nx)
		j = mirror(j, ny)
	}
	return psi.Data[i*ny+j]
}

// mirror reflects an index one step outside [0, n) about the edge node.
func mirror(i, n int) int {
	if i < 0 {
		return -i
	}
	if i >= n {
		return 2*(n-1) - i
	}
	return i
}
