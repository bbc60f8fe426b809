package mapengine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripQuery_DropsAllQueryParams(t *testing.T) {
	assert.Equal(t, "https://a.example/b", stripQuery("https://a.example/b?id=7"))
	assert.Equal(t, "https://a.example/b", stripQuery("https://a.example/b?id=7&utm_source=x"))
}

func TestStripQuery_CollapsesDistinctQueriesToSamePath(t *testing.T) {
	a := stripQuery("https://a.example/b?id=7")
	b := stripQuery("https://a.example/b?id=8")
	assert.Equal(t, a, b)
}

func TestStripQuery_DropsFragmentToo(t *testing.T) {
	assert.Equal(t, "https://a.example/b", stripQuery("https://a.example/b?id=7#section"))
}

func TestWithDefaults_ExplicitMaxDepthZeroSurvives(t *testing.T) {
	out := Options{MaxDepth: 0}.withDefaults()
	assert.Equal(t, 0, out.MaxDepth)
}

func TestWithDefaults_NegativeMaxDepthGetsDefault(t *testing.T) {
	out := Options{MaxDepth: -1}.withDefaults()
	assert.Equal(t, 3, out.MaxDepth)
}

func TestWithDefaults_FillsLimitAndConcurrency(t *testing.T) {
	out := Options{}.withDefaults()
	assert.Equal(t, 200, out.Limit)
	assert.Equal(t, defaultConcurrency, out.Concurrency)
}
