// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package lod

// Atom is a single parsed atom record as supplied by the structure loader.
type Atom struct {
	Serial     int
	Name       string
	Element    string
	Residue    string
	ResidueSeq int
	Chain      string
	X, Y, Z    float32
	// Hetero marks HETATM records (ligands, ions, waters).
	Hetero bool
}

// Structure is a parsed structure handed over by the fetch/parse pipeline.
// Chains and ResidueCount are optional metadata; when empty they are
// derived from the atoms.
type Structure struct {
	ID           string
	Atoms        []Atom
	Chains       []string
	ResidueCount int
	// Surfaces reports that precomputed surface data accompanies the atoms.
	Surfaces bool
}

// StructureComplexity summarizes the rendering cost of a structure.
// It is computed once per load and never mutated.
type StructureComplexity struct {
	AtomCount         int
	BondCount         int
	ResidueCount      int
	ChainCount        int
	HasLigands        bool
	HasSurfaces       bool
	EstimatedVertices int
}

// Covalent bonds per atom in typical macromolecules.
const bondsPerAtom = 1.08

// Full-detail tessellation used for EstimatedVertices.
const (
	sphereVertices   = 42 // icosphere, one subdivision
	cylinderVertices = 16
	surfaceVertices  = 60 // per atom, solvent-excluded surface
)

var waterResidues = map[string]bool{"HOH": true, "WAT": true, "H2O": true, "DOD": true}

// NewStructureComplexity derives the complexity metrics of s.
func NewStructureComplexity(s *Structure) StructureComplexity {
	if s == nil {
		return StructureComplexity{}
	}

	c := StructureComplexity{
		AtomCount:    len(s.Atoms),
		ResidueCount: s.ResidueCount,
		ChainCount:   len(s.Chains),
		HasSurfaces:  s.Surfaces,
	}

	type residueKey struct {
		chain string
		seq   int
	}
	deriveResidues := c.ResidueCount <= 0
	deriveChains := c.ChainCount == 0
	residues := make(map[residueKey]struct{})
	chains := make(map[string]struct{})

	for i := range s.Atoms {
		a := &s.Atoms[i]
		if a.Hetero && !waterResidues[a.Residue] {
			c.HasLigands = true
		}
		if deriveResidues && !a.Hetero {
			residues[residueKey{a.Chain, a.ResidueSeq}] = struct{}{}
		}
		if deriveChains {
			chains[a.Chain] = struct{}{}
		}
	}
	if deriveResidues {
		c.ResidueCount = len(residues)
	}
	if deriveChains {
		c.ChainCount = len(chains)
	}

	c.BondCount = int(float64(c.AtomCount) * bondsPerAtom)
	c.EstimatedVertices = c.AtomCount*sphereVertices + c.BondCount*cylinderVertices
	if c.HasSurfaces {
		c.EstimatedVertices += c.AtomCount * surfaceVertices
	}
	return c
}
