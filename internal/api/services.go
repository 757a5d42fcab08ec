package api

// Service accessors group Client methods by resource family. Each service
// embeds *Client, so FashionQuote is available on all of them.

type CatalogService struct{ *Client }

type VisualSearchService struct{ *Client }

type NaturalLanguageSearchService struct{ *Client }

type CompleteTheLookService struct{ *Client }

func (c *Client) Catalog() CatalogService {
	return CatalogService{c}
}

func (c *Client) VisualSearch() VisualSearchService {
	return VisualSearchService{c}
}

func (c *Client) NaturalLanguageSearch() NaturalLanguageSearchService {
	return NaturalLanguageSearchService{c}
}

func (c *Client) CompleteTheLook() CompleteTheLookService {
	return CompleteTheLookService{c}
}
