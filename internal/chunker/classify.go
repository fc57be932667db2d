package chunker

import "github.com/custodia-labs/synindex/internal/core/domain"

// containerTags are top-level addressable artifacts.
var containerTags = setOf("api", "sequence", "proxy", "endpoint", "localEntry")

// flowTags are structural blocks nested in a container.
var flowTags = setOf("resource", "inSequence", "outSequence", "faultSequence", "target")

// leafTags are known mediators.
var leafTags = setOf(
	// core
	"log", "property", "propertyGroup", "call", "send", "respond", "drop",
	"loopback", "sequence", "endpoint", "call-template", "callout", "header",
	// routing and flow control
	"filter", "switch", "clone", "iterate", "foreach", "aggregate",
	"scatter-gather", "throttle", "conditionalRouter", "router", "validate",
	// transformation
	"payloadFactory", "enrich", "xslt", "fastXSLT", "xquery", "script",
	"datamapper", "jsontransform", "smooks", "rewrite", "makefault", "builder",
	// extension and integration
	"class", "bean", "ejb", "spring", "pojoCommand", "store", "cache",
	"dblookup", "dbreport", "transaction", "event", "publishEvent",
	"entitlementService", "oauthService", "ntlm",
)

func setOf(tags ...string) map[string]bool {
	set := make(map[string]bool, len(tags))
	for _, t := range tags {
		set[t] = true
	}
	return set
}

// classify returns the level of tag given whether an enclosing container
// has already been emitted. A container tag inside a container is an
// inline reference and counts as a leaf. ok is false for transparent tags.
func classify(tag string, insideContainer bool) (level domain.FragmentLevel, ok bool) {
	switch {
	case containerTags[tag] && !insideContainer:
		return domain.LevelContainer, true
	case containerTags[tag]:
		return domain.LevelLeaf, true
	case flowTags[tag]:
		return domain.LevelFlow, true
	case leafTags[tag]:
		return domain.LevelLeaf, true
	default:
		return "", false
	}
}

// namePreference lists the attributes tried, in order, for a fragment name.
var namePreference = []string{"name", "key", "context", "uri-template", "url-mapping"}

func resolveName(attrs []attr) string {
	for _, want := range namePreference {
		for _, a := range attrs {
			if a.key == want && a.value != "" {
				return a.value
			}
		}
	}
	return ""
}
