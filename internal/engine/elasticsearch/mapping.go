package elasticsearch

// DefaultIndexName is the index used when none is configured.
const DefaultIndexName = "marketplace_products"

// indexMapping returns the index settings and explicit field mapping.
// Name carries keyword and edge_ngram subfields so the same stored field
// serves relevance scoring, exact dedupe, and typeahead prefixes.
func indexMapping() string {
	return `{
  "settings": {
    "number_of_shards": 1,
    "number_of_replicas": 1,
    "analysis": {
      "analyzer": {
        "autocomplete": {
          "type": "custom",
          "tokenizer": "standard",
          "filter": ["lowercase", "autocomplete_filter"]
        },
        "autocomplete_search": {
          "type": "custom",
          "tokenizer": "standard",
          "filter": ["lowercase"]
        }
      },
      "filter": {
        "autocomplete_filter": {
          "type": "edge_ngram",
          "min_gram": 2,
          "max_gram": 20
        }
      }
    }
  },
  "mappings": {
    "properties": {
      "id": {"type": "keyword"},
      "name": {
        "type": "text",
        "analyzer": "standard",
        "fields": {
          "keyword": {"type": "keyword"},
          "autocomplete": {
            "type": "text",
            "analyzer": "autocomplete",
            "search_analyzer": "autocomplete_search"
          }
        }
      },
      "description": {"type": "text"},
      "brand": {
        "type": "text",
        "fields": {
          "keyword": {"type": "keyword"}
        }
      },
      "category_id": {"type": "keyword"},
      "category_name": {
        "type": "text",
        "fields": {
          "keyword": {"type": "keyword"}
        }
      },
      "price": {"type": "double"},
      "rating": {"type": "double"},
      "review_count": {"type": "integer"},
      "created_at": {"type": "date"},
      "updated_at": {"type": "date"}
    }
  }
}`
}
