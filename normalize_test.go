package xtree

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeAttributeValueNoOpWhenNothingSpecial(t *testing.T) {
	b := newBuilder("<e a='plain'/>", newConfig())
	out, err := b.normalizeAttributeValue("plain", 6)
	require.Nil(t, err)
	require.Equal(t, "plain", out)
}

func TestNormalizeAttributeValueCollapsesWhitespace(t *testing.T) {
	b := newBuilder("<e a='x\ty'/>", newConfig())
	out, err := b.normalizeAttributeValue("x\ty", 6)
	require.Nil(t, err)
	require.Equal(t, "x y", out)
}

func TestNormalizeAttributeValueExpandsCharRef(t *testing.T) {
	b := newBuilder("<e a='x&#x20;y'/>", newConfig())
	out, err := b.normalizeAttributeValue("x&#x20;y", 6)
	require.Nil(t, err)
	require.Equal(t, "x y", out)
}

func TestNormalizeAttributeValueUnknownEntityErrors(t *testing.T) {
	b := newBuilder("<e a='&nope;'/>", newConfig())
	_, err := b.normalizeAttributeValue("&nope;", 6)
	require.NotNil(t, err)
	require.Equal(t, KindUnknownEntityReference, err.Kind)
}

func TestNormalizeAttributeValueMalformedReferenceErrors(t *testing.T) {
	b := newBuilder("<e a='&'/>", newConfig())
	_, err := b.normalizeAttributeValue("&", 6)
	require.NotNil(t, err)
	require.Equal(t, KindMalformedEntityReference, err.Kind)
}

func TestNormalizeAttributeValuePredefinedEntity(t *testing.T) {
	b := newBuilder("<e a='&amp;'/>", newConfig())
	out, err := b.normalizeAttributeValue("&amp;", 6)
	require.Nil(t, err)
	require.Equal(t, "&", out)
}

func TestNormalizeAttributeValuePredefinedEntityMixedWithText(t *testing.T) {
	b := newBuilder("<e a='x&amp;y&lt;z'/>", newConfig())
	out, err := b.normalizeAttributeValue("x&amp;y&lt;z", 6)
	require.Nil(t, err)
	require.Equal(t, "x&y<z", out)
}

func TestNormalizeAttributeValuePredefinedLessThanNestedInGeneralEntityErrors(t *testing.T) {
	b := newBuilder(`<!DOCTYPE t [<!ENTITY a '&lt;'>]><e x='&a;'/>`, newConfig())
	b.entities.insert("a", "&lt;", 25)
	_, err := b.normalizeAttributeValue("&a;", 39)
	require.NotNil(t, err)
	require.Equal(t, KindInvalidAttributeValue, err.Kind)
}
