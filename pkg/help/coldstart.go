package help

const ColdstartYAML = `# contact-scout Quick Start

credentials:
  - "API_KEY: Custom Search JSON API key"
  - "CSE_ID: programmable search engine id"
  - "Read from the environment, or from .env (--env-file) when present"

commands:
  basic_run: |
    contact-scout "thai dishes recipes"

  more_domains: |
    contact-scout run --max-domains 10 --exclude reddit.com --exclude pinterest.com "vegan bakery"

  bounded_run: |
    contact-scout run --run-timeout 2m --rate-limit 4 "indie game studios"

  with_history: |
    contact-scout run --db contact-scout.db "coffee roasters"
    contact-scout history
    contact-scout history show
    contact-scout history pages --failed

  json_summary: |
    contact-scout run --format json --quiet "yoga studios" | jq .stats

config_file: |
  # contact-scout run --config scout.yaml
  query: thai dishes recipes
  output: google_scrape_results.csv
  max_domains: 5
  search_pages: 5
  exclude: [reddit.com]
  contact_paths: [/contact, /about, /advertising, /contact-us, /about-us]
  workers: 5
  page_concurrency: 8
  request_timeout: 10s
  run_timeout: 0s
  rate_limit: 0
  consumer_domains: [outlook.com]

output:
  file: "CSV, truncated every run"
  columns: [date, domain, page, emails, form_found_page]
  date_format: "YYYY-MM-DD HH:MM"
  form_found_page: "True when the page has a form or a link mentioning contact, else empty"
  emails: "empty for pages with a contact signal but no address"

invariants:
  - "An address appears at most once per run, on the first page that showed it"
  - "Higher-ranked search results win shared addresses"
  - "Each URL is fetched at most once per domain"
  - "Placeholder and free-mail addresses are never written"

error_behavior:
  - "Page failures (timeout, non-200, parse): logged, page skipped"
  - "Ctrl-C or --run-timeout: in-flight fetches fail, partial results still written"
  - "Exit codes: 0=success, 2=config or credentials, 3=search provider, 4=output write"
`
