package extractor

import "github.com/use-agent/sectionscope/models"

// rule pairs an element predicate with the section type it produces.
type rule struct {
	name  string
	match Predicate
	typ   models.SectionType
}

// sectionCatalog is evaluated in order. Earlier rules win when a subtree
// would match several of them, because later matches are dropped as
// duplicates.
var sectionCatalog = []rule{
	{"header", Tag("header"), models.SectionNav},
	{"nav", Tag("nav"), models.SectionNav},
	{"main", Tag("main"), models.SectionSection},
	{`[class*="hero"]`, ClassContains("hero"), models.SectionHero},
	{`[class*="Hero"]`, ClassContains("Hero"), models.SectionHero},
	{"section", Tag("section"), models.SectionSection},
	{"article", Tag("article"), models.SectionSection},
	{`[class*="pricing"]`, ClassContains("pricing"), models.SectionPricing},
	{`[class*="Pricing"]`, ClassContains("Pricing"), models.SectionPricing},
	{`[class*="faq"]`, ClassContains("faq"), models.SectionFAQ},
	{`[class*="FAQ"]`, ClassContains("FAQ"), models.SectionFAQ},
	{"ul, ol", Tag("ul", "ol"), models.SectionList},
	{`[class*="grid"]`, ClassContains("grid"), models.SectionGrid},
	{"footer", Tag("footer"), models.SectionFooter},
}

var (
	headingTier  = Tag("h1", "h2", "h3")
	anyHeading   = Tag("h1", "h2", "h3", "h4", "h5", "h6")
	nonText      = Tag("script", "style", "noscript")
	listElements = Tag("ul", "ol")
	listItem     = Tag("li")
	tableElement = Tag("table")
	tableRow     = Tag("tr")
	tableCell    = Tag("th", "td")
	anchorHref   = CSS("a[href]")
	imageSrc     = CSS("img[src]")
)
