package scoring

import (
	"testing"

	"github.com/jonathan/warm-intros/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestScore_RoleBoost(t *testing.T) {
	conn := &types.NetworkConnection{
		CompanyName:          "Acme",
		RelationshipStrength: 2,
		KeyContacts:          []types.KeyContact{{Name: "Dana", Title: "Chief Technology Officer"}},
	}
	icp := &types.ICPProfile{KeyRoles: []string{"CTO"}}

	res := Score(conn, icp)
	assert.Equal(t, RoleBoost, res.Boost)
	assert.Equal(t, []string{"Matches ICP Role: Chief Technology Officer"}, res.Criteria)
}

func TestScore_RoleBoostAppliedOnce(t *testing.T) {
	conn := &types.NetworkConnection{
		RelationshipStrength: 1,
		KeyContacts: []types.KeyContact{
			{Name: "A", Title: "VP Engineering"},
			{Name: "B", Title: "Head of Engineering"},
		},
	}
	icp := &types.ICPProfile{KeyRoles: []string{"engineering", "vp"}}

	res := Score(conn, icp)
	assert.Equal(t, RoleBoost, res.Boost)
	assert.Equal(t, []string{"Matches ICP Role: VP Engineering"}, res.Criteria)
}

func TestScore_RelationshipBoost(t *testing.T) {
	tests := []struct {
		strength int
		boost    int
	}{
		{1, 0}, {3, 0}, {4, RelationshipBoost}, {5, RelationshipBoost},
	}
	for _, tt := range tests {
		res := Score(&types.NetworkConnection{RelationshipStrength: tt.strength}, nil)
		assert.Equal(t, tt.boost, res.Boost, "strength %d", tt.strength)
		if tt.boost > 0 {
			assert.Contains(t, res.Criteria, CriterionStrongRelationship)
		}
	}
}

func TestScore_NilICPDisablesRoleMatching(t *testing.T) {
	conn := &types.NetworkConnection{
		RelationshipStrength: 4,
		KeyContacts:          []types.KeyContact{{Name: "Dana", Title: "CTO"}},
	}
	res := Score(conn, nil)
	assert.Equal(t, RelationshipBoost, res.Boost)
	assert.Equal(t, []string{CriterionStrongRelationship}, res.Criteria)
}

func TestRoleMatches(t *testing.T) {
	tests := []struct {
		title, role string
		want        bool
	}{
		{"Chief Technology Officer", "CTO", true},
		{"CTO", "Chief Technology Officer", true},
		{"Senior VP of Sales", "vp of sales", true},
		{"Vice President Sales", "VPS", true},
		{"VP of Sales", "VPOS", false},
		{"Engineer", "CTO", false},
		{"", "CTO", false},
		{"CTO", "", false},
		{"Chief Financial Officer", "CTO", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RoleMatches(tt.title, tt.role), "%q vs %q", tt.title, tt.role)
	}
}

func TestCombineAndClamp(t *testing.T) {
	assert.Equal(t, 80, Combine(60, 20))
	assert.Equal(t, 100, Combine(95, 30))
	assert.Equal(t, 30, Combine(-10, 30))
	assert.Equal(t, 0, Clamp(-1))
	assert.Equal(t, 100, Clamp(101))
}

func TestClassify(t *testing.T) {
	assert.Equal(t, types.MatchFull, Classify(75))
	assert.Equal(t, types.MatchFull, Classify(100))
	assert.Equal(t, types.MatchPartial, Classify(74))
	assert.Equal(t, types.MatchPartial, Classify(40))
	assert.Equal(t, types.MatchNone, Classify(39))
	assert.Equal(t, types.MatchNone, Classify(0))
}

func TestEligible(t *testing.T) {
	assert.True(t, Eligible(&types.NetworkConnection{RelationshipStrength: 1}))
	assert.False(t, Eligible(&types.NetworkConnection{RelationshipStrength: 0}))
}
